package npm

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/liquid-labs/plugable-express-sub000/pkg/integrations"
)

// selectVersion picks the version of doc named by constraint.
func selectVersion(doc *packument, constraint string) (string, error) {
	if constraint == "" {
		constraint = "latest"
	}
	if _, ok := doc.Versions[constraint]; ok {
		return constraint, nil
	}
	if tagged, ok := doc.DistTags[constraint]; ok {
		if _, ok := doc.Versions[tagged]; ok {
			return tagged, nil
		}
	}
	if constraint == "latest" {
		// Registries without dist-tags still get a deterministic choice.
		constraint = "*"
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return "", fmt.Errorf("%w: invalid version constraint %q: %v", integrations.ErrNotFound, constraint, err)
	}
	for _, v := range doc.parsedVersions() {
		if c.Check(v) {
			return v.Original(), nil
		}
	}
	return "", fmt.Errorf("%w: no version satisfies %q", integrations.ErrNotFound, constraint)
}

// parsedVersions returns the semver-valid versions of doc, highest first.
func (p *packument) parsedVersions() []*semver.Version {
	out := make([]*semver.Version, 0, len(p.Versions))
	for raw := range p.Versions {
		if v, err := semver.NewVersion(raw); err == nil {
			out = append(out, v)
		}
	}
	sort.Sort(sort.Reverse(semver.Collection(out)))
	return out
}

func (p *packument) sortedVersions() []string {
	parsed := p.parsedVersions()
	out := make([]string, len(parsed))
	for i, v := range parsed {
		out[i] = v.Original()
	}
	return out
}
