package executor

import "browser-commander/internal/domain/textnorm"

const (
	ReasonSecurityBlock = "security_block"
	ReasonError         = "error"
	ReasonSuccess       = "success"
	ReasonNoIndicator   = "no_indicator"
)

// Phrase lists are matched on folded text, security first, then errors,
// then success.
var (
	SecurityPhrases = []string{
		"captcha", "recaptcha", "hcaptcha", "verification code", "kod weryfikacyjny",
		"nieprawidłowy kod", "przepisz kod", "i'm not a robot", "nie jestem robotem",
		"verify you are human", "cloudflare", "access denied", "unusual traffic",
	}
	ErrorPhrases = []string{
		"błąd", "error", "nieprawidłow", "niepoprawn", "required field", "pole wymagane",
		"to pole jest wymagane", "this field is required", "failed", "try again", "spróbuj ponownie",
	}
	SuccessPhrases = []string{
		"dziękujemy", "thank you", "thanks", "wysłano", "wiadomość została wysłana",
		"message sent", "message has been sent", "success", "sukces", "otrzymaliśmy",
		"we will get back", "odpowiemy",
	}
)

type Verification struct {
	Verified bool
	Reason   string
	Matched  string
}

// Verify classifies visible page text after an action.
func Verify(pageText string) Verification {
	if p, ok := textnorm.FirstPhrase(pageText, SecurityPhrases); ok {
		return Verification{Reason: ReasonSecurityBlock, Matched: p}
	}
	if p, ok := textnorm.FirstPhrase(pageText, ErrorPhrases); ok {
		return Verification{Reason: ReasonError, Matched: p}
	}
	if p, ok := textnorm.FirstPhrase(pageText, SuccessPhrases); ok {
		return Verification{Verified: true, Reason: ReasonSuccess, Matched: p}
	}
	return Verification{Reason: ReasonNoIndicator}
}

// HasChallenge reports whether the page still shows an anti-bot challenge.
func HasChallenge(pageText string) bool {
	_, ok := textnorm.FirstPhrase(pageText, SecurityPhrases)
	return ok
}

func (v Verification) Data() map[string]any {
	return map[string]any{
		"verified": v.Verified,
		"reason":   v.Reason,
		"matched":  v.Matched,
	}
}
