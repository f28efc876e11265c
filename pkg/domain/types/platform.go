package types

// Platform represents the collaboration platform a fragment or identity came from
type Platform string

const (
	PlatformJira       Platform = "jira"
	PlatformConfluence Platform = "confluence"
	PlatformSlack      Platform = "slack"
	PlatformNotion     Platform = "notion"
	PlatformGitHub     Platform = "github"
	// PlatformWeb is the fallback for URLs that match no known platform shape
	PlatformWeb Platform = "web"
)

// AllPlatforms returns all valid platforms
func AllPlatforms() []Platform {
	return []Platform{
		PlatformJira,
		PlatformConfluence,
		PlatformSlack,
		PlatformNotion,
		PlatformGitHub,
		PlatformWeb,
	}
}

// IsValid checks if the platform is valid
func (p Platform) IsValid() bool {
	switch p {
	case PlatformJira, PlatformConfluence, PlatformSlack, PlatformNotion, PlatformGitHub, PlatformWeb:
		return true
	default:
		return false
	}
}

// String returns the string representation of the platform
func (p Platform) String() string {
	return string(p)
}
