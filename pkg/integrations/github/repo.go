package github

import (
	"errors"
	"regexp"

	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
)

// Regex patterns for GitHub resource validation.
var (
	// GitHub usernames/orgs: 1-39 alphanumeric or hyphen, not starting with hyphen
	validOwner = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,38}$`)
	// GitHub repo names: 1-100 alphanumeric, hyphen, underscore, or dot
	validRepo = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)

	repoURLPattern   = regexp.MustCompile(`^https?://(?:www\.)?github\.com/([^/]+)/([^/?#]+?)(?:\.git)?(?:[/?#]|$)`)
	shorthandPattern = regexp.MustCompile(`^(?:github:)?([^/:@\s]+)/([^/:@\s#]+?)(?:\.git)?(?:#.*)?$`)
)

// ParseRepoURL extracts owner and repository from a repository URL as
// found in package metadata. It understands https, git+https, git@, git://,
// ssh:// and "github:owner/repo" forms, as well as bare "owner/repo".
// ok is false for anything not hosted on GitHub.
func ParseRepoURL(raw string) (owner, repo string, ok bool) {
	s := integrations.NormalizeRepoURL(raw)
	if s == "" {
		return "", "", false
	}
	if m := repoURLPattern.FindStringSubmatch(s); m != nil {
		owner, repo = m[1], m[2]
	} else if m := shorthandPattern.FindStringSubmatch(s); m != nil {
		owner, repo = m[1], m[2]
	} else {
		return "", "", false
	}
	if ValidateRepoRef(owner, repo) != nil {
		return "", "", false
	}
	return owner, repo, true
}

// ValidateOwner validates a GitHub username or organization name.
func ValidateOwner(owner string) error {
	if owner == "" {
		return errors.New("owner is required")
	}
	if !validOwner.MatchString(owner) {
		return errors.New("invalid owner format: must be 1-39 alphanumeric characters or hyphens, cannot start with hyphen")
	}
	return nil
}

// ValidateRepo validates a GitHub repository name.
func ValidateRepo(repo string) error {
	if repo == "" {
		return errors.New("repo is required")
	}
	if !validRepo.MatchString(repo) {
		return errors.New("invalid repo format: must be 1-100 alphanumeric characters, hyphens, underscores, or dots")
	}
	return nil
}

// ValidateRepoRef validates both owner and repo parameters.
func ValidateRepoRef(owner, repo string) error {
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	return ValidateRepo(repo)
}
