package entity

type Goal string

const (
	GoalFindContactForm Goal = "find_contact_form"
	GoalFindCart        Goal = "find_cart"
	GoalFindCheckout    Goal = "find_checkout"
	GoalFindLogin       Goal = "find_login"
	GoalFindRegister    Goal = "find_register"
	GoalFindSearch      Goal = "find_search"
	GoalFindProducts    Goal = "find_products"
	GoalFindCareers     Goal = "find_careers"
	GoalFindHelp        Goal = "find_help"
	GoalFindAbout       Goal = "find_about"
	GoalFindPricing     Goal = "find_pricing"
	GoalExtractData     Goal = "extract_data"
	GoalGeneric         Goal = "generic"
)

// Goals lists every goal in a fixed order. Scoring ties are broken by this order.
var Goals = []Goal{
	GoalFindContactForm,
	GoalFindCart,
	GoalFindCheckout,
	GoalFindLogin,
	GoalFindRegister,
	GoalFindSearch,
	GoalFindProducts,
	GoalFindCareers,
	GoalFindHelp,
	GoalFindAbout,
	GoalFindPricing,
	GoalExtractData,
	GoalGeneric,
}

var goalDescriptions = map[Goal]string{
	GoalFindContactForm: "find the contact page or contact form and send a message",
	GoalFindCart:        "open the shopping cart / basket and read its contents",
	GoalFindCheckout:    "go to checkout / order summary",
	GoalFindLogin:       "find the sign-in / login page",
	GoalFindRegister:    "find the registration / sign-up page",
	GoalFindSearch:      "use the site search to look something up",
	GoalFindProducts:    "find products or the product catalogue",
	GoalFindCareers:     "find job offers / careers page",
	GoalFindHelp:        "find help, support or FAQ",
	GoalFindAbout:       "find information about the company",
	GoalFindPricing:     "find pricing / plans",
	GoalExtractData:     "extract data (text, list, prices) from the page",
	GoalGeneric:         "generic navigation with no specific target",
}

func (g Goal) String() string {
	return string(g)
}

func (g Goal) Description() string {
	return goalDescriptions[g]
}

func (g Goal) Valid() bool {
	_, ok := goalDescriptions[g]
	return ok
}

func ParseGoal(s string) (Goal, bool) {
	g := Goal(s)
	return g, g.Valid()
}

type TaskType string

const (
	TaskTypeForm       TaskType = "form"
	TaskTypeEcommerce  TaskType = "ecommerce"
	TaskTypeAuth       TaskType = "auth"
	TaskTypeExtraction TaskType = "extraction"
	TaskTypeNavigation TaskType = "navigation"
)

func (g Goal) TaskType() TaskType {
	switch g {
	case GoalFindContactForm:
		return TaskTypeForm
	case GoalFindCart, GoalFindCheckout, GoalFindProducts:
		return TaskTypeEcommerce
	case GoalFindLogin, GoalFindRegister:
		return TaskTypeAuth
	case GoalExtractData, GoalFindSearch:
		return TaskTypeExtraction
	default:
		return TaskTypeNavigation
	}
}

type DetectionMethod string

const (
	MethodPattern     DetectionMethod = "pattern"
	MethodStatistical DetectionMethod = "statistical"
	MethodLLM         DetectionMethod = "llm"
	MethodKeyword     DetectionMethod = "keyword"
)

type GoalMatch struct {
	Goal       Goal            `json:"goal"`
	Confidence float64         `json:"confidence"`
	Method     DetectionMethod `json:"method"`
	Reasoning  string          `json:"reasoning,omitempty"`
}
