package access

// Reason classifies why a decision came out the way it did.
type Reason string

// Decision reasons, one per check in the evaluation order.
const (
	ReasonAllowed          Reason = "allowed"
	ReasonUnauthenticated  Reason = "unauthenticated"
	ReasonAccountDisabled  Reason = "account_disabled"
	ReasonEmailUnverified  Reason = "email_unverified"
	ReasonRoleDenied       Reason = "role_denied"
	ReasonPermissionDenied Reason = "permission_denied"
	ReasonEvaluationError  Reason = "evaluation_error"
)

// Decision is the typed outcome of an access evaluation. A denial is a
// value, never an error, and always carries a redirect target.
type Decision struct {
	Allow    bool
	Redirect Target
	Reason   Reason
}

func allow() Decision {
	return Decision{Allow: true, Reason: ReasonAllowed}
}

func deny(reason Reason, redirect Target) Decision {
	return Decision{Allow: false, Reason: reason, Redirect: redirect}
}
