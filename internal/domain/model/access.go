package model

// AccessSource names the fact that granted course access.
type AccessSource string

const (
	AccessSourceNone       AccessSource = "none"
	AccessSourceKey        AccessSource = "key"
	AccessSourceEnrollment AccessSource = "enrollment"
	AccessSourceFreeCourse AccessSource = "free_course"
)

// AccessDecision is the single answer to "may this user open this course".
type AccessDecision struct {
	HasAccess bool
	Source    AccessSource
}

// AllowsEpisode reports whether ep may be opened under this decision,
// ignoring the unlock chain.
func (d AccessDecision) AllowsEpisode(ep *Episode) bool {
	return d.HasAccess || (ep != nil && ep.IsFree)
}
