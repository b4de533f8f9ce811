package entity

type FormData struct {
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Message     string `json:"message,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
}

func (f FormData) IsEmpty() bool {
	return f == FormData{}
}

// Fields returns the non-empty fields in fill order.
func (f FormData) Fields() []FormField {
	var out []FormField
	for _, kv := range []FormField{
		{Name: FieldName, Value: f.Name},
		{Name: FieldEmail, Value: f.Email},
		{Name: FieldPhone, Value: f.Phone},
		{Name: FieldOrderNumber, Value: f.OrderNumber},
		{Name: FieldMessage, Value: f.Message},
	} {
		if kv.Value != "" {
			out = append(out, kv)
		}
	}
	return out
}

const (
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldMessage     = "message"
	FieldOrderNumber = "order_number"
	FieldSearch      = "search"
)

type FormField struct {
	Name  string
	Value string
}

type Constraints struct {
	MaxPrice float64 `json:"max_price,omitempty"`
	MinItems int     `json:"min_items,omitempty"`
}

// ParsedCommand is produced once per instruction and is treated as a value:
// derived variants are built with the With* helpers, never by mutation.
type ParsedCommand struct {
	TargetDomain   string      `json:"target_domain,omitempty"`
	TargetURL      string      `json:"target_url,omitempty"`
	PrimaryGoal    Goal        `json:"primary_goal"`
	GoalConfidence float64     `json:"goal_confidence"`
	SecondaryGoals []Goal      `json:"secondary_goals,omitempty"`
	FormData       FormData    `json:"form_data"`
	SearchQuery    string      `json:"search_query,omitempty"`
	Actions        []string    `json:"actions,omitempty"`
	Constraints    Constraints `json:"constraints"`
	OriginalText   string      `json:"original_text"`
	Confidence     float64     `json:"confidence"`
}

// URL returns the explicit URL, or https://<domain> for a bare domain.
func (c ParsedCommand) URL() string {
	if c.TargetURL != "" {
		return c.TargetURL
	}
	if c.TargetDomain != "" {
		return "https://" + c.TargetDomain
	}
	return ""
}

func (c ParsedCommand) HasAction(action string) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

func (c ParsedCommand) WithGoal(m GoalMatch) ParsedCommand {
	out := c
	if m.Goal != c.PrimaryGoal {
		secondary := make([]Goal, 0, len(c.SecondaryGoals)+1)
		if c.PrimaryGoal != "" && c.PrimaryGoal != GoalGeneric {
			secondary = append(secondary, c.PrimaryGoal)
		}
		for _, g := range c.SecondaryGoals {
			if g != m.Goal {
				secondary = append(secondary, g)
			}
		}
		out.SecondaryGoals = secondary
	}
	out.PrimaryGoal = m.Goal
	out.GoalConfidence = m.Confidence
	return out
}

const (
	ActionNavigate   = "navigate"
	ActionFill       = "fill"
	ActionSubmit     = "submit"
	ActionSearch     = "search"
	ActionClick      = "click"
	ActionLogin      = "login"
	ActionAddToCart  = "add_to_cart"
	ActionExtract    = "extract"
	ActionScreenshot = "screenshot"
)
