// Package github fetches raw files from GitHub-hosted repositories.
//
// # Overview
//
// Plugin packages usually declare their source repository in registry
// metadata. This package turns such a declaration into an owner/repo pair
// and fetches individual files from it at a tag, without going through the
// rate-limited REST API.
//
// # Usage
//
//	owner, repo, ok := github.ParseRepoURL(meta.Repository)
//	if !ok {
//	    // not hosted on GitHub
//	}
//
//	client := github.NewRawClient("", token)
//	data, err := client.Fetch(ctx, owner, repo, "v1.2.0", "plugin-dependencies.yaml")
//	if errors.Is(err, integrations.ErrNotFound) {
//	    // file (or tag) does not exist
//	}
//
// # URL Forms
//
// [ParseRepoURL] handles the repository formats npm metadata carries:
// https with or without .git, git+https, git@github.com:owner/repo,
// git://, ssh://git@github.com/, the "github:" shorthand and bare
// "owner/repo".
package github
