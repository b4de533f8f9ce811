package entity

type NavigationResult struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

type LinkLocation string

const (
	LocationHeader  LinkLocation = "header"
	LocationNav     LinkLocation = "nav"
	LocationFooter  LinkLocation = "footer"
	LocationSidebar LinkLocation = "sidebar"
	LocationMain    LinkLocation = "main"
)

// Anchor is a visible <a> element as read from the page.
type Anchor struct {
	Text      string       `json:"text"`
	Href      string       `json:"href"`
	AriaLabel string       `json:"aria_label,omitempty"`
	Title     string       `json:"title,omitempty"`
	Location  LinkLocation `json:"location"`
}

type LinkCandidate struct {
	URL      string       `json:"url"`
	Text     string       `json:"text"`
	Score    float64      `json:"score"`
	Location LinkLocation `json:"location"`
	Reason   string       `json:"reason"`
}

type ResolutionMethod string

const (
	ResolvedByLink      ResolutionMethod = "link"
	ResolvedByPath      ResolutionMethod = "path_probe"
	ResolvedBySubdomain ResolutionMethod = "subdomain_probe"
)

type Resolution struct {
	URL       string           `json:"url"`
	Method    ResolutionMethod `json:"method"`
	Candidate *LinkCandidate   `json:"candidate,omitempty"`
}

// FormAnalysis holds CSS selectors discovered on the current page.
type FormAnalysis struct {
	Fields           map[string]string `json:"fields"`
	ConsentSelectors []string          `json:"consent_selectors,omitempty"`
	SubmitSelector   string            `json:"submit_selector,omitempty"`
	SearchSubmit     string            `json:"search_submit,omitempty"`
	FormCount        int               `json:"form_count"`
	HasPassword      bool              `json:"has_password"`
}
