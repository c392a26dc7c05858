package install

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/liquid-labs/plugable-express-sub000/pkg/observability"
	"github.com/liquid-labs/plugable-express-sub000/pkg/pkgspec"
)

// Plugin describes one newly installed package.
type Plugin struct {
	Name            string `json:"npmName"`
	Spec            string `json:"spec"`
	IsImplied       bool   `json:"isImplied"`
	FromRegistry    bool   `json:"fromRegistry"`
	FromLocalSource bool   `json:"fromLocalSource"`
}

// Result is the outcome of an installation.
type Result struct {
	Total      int `json:"total"`
	Implied    int `json:"implied"`
	Local      int `json:"local"`
	Production int `json:"production"`

	Installed        []Plugin `json:"installedPlugins"`
	AlreadyInstalled []string `json:"alreadyInstalled"`
	Summary          string   `json:"summary"`
}

// Reconciler hands the newly resolved packages to an Installer and reports
// what happened.
type Reconciler struct {
	Installer Installer
	Dir       string            // Plugin package directory
	DevPaths  map[string]string // Package name to local directory
	Logger    *log.Logger
}

// Reconcile installs the packages of resolved that are not in installed,
// in one installer call. Packages not named in explicit are tagged as
// implied. Installer failures are returned unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, resolved []pkgspec.Spec, installed map[string]bool, explicit []pkgspec.Spec) (*Result, error) {
	res := &Result{}
	var pending []pkgspec.Spec
	for _, s := range resolved {
		if installed[s.Name] {
			res.AlreadyInstalled = appendUnique(res.AlreadyInstalled, s.Name)
			continue
		}
		pending = append(pending, s)
	}
	for _, s := range explicit {
		if installed[s.Name] {
			res.AlreadyInstalled = appendUnique(res.AlreadyInstalled, s.Name)
		}
	}

	if len(pending) == 0 {
		res.Summary = summarize(res)
		return res, nil
	}

	args := pkgspec.Strings(pending)
	hooks := observability.Install()
	hooks.OnInstallStart(ctx, args)
	start := time.Now()
	report, err := r.Installer.Install(ctx, args, r.Dir, r.DevPaths)
	hooks.OnInstallComplete(ctx, args, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	requested := make(map[string]bool, len(explicit))
	for _, s := range explicit {
		requested[s.Name] = true
	}
	for _, s := range pending {
		p := Plugin{
			Name:            s.Name,
			Spec:            s.String(),
			IsImplied:       !requested[s.Name],
			FromLocalSource: slices.Contains(report.LocalPackages, s.Name),
		}
		p.FromRegistry = !p.FromLocalSource
		res.Installed = append(res.Installed, p)

		res.Total++
		if p.IsImplied {
			res.Implied++
		}
		if p.FromLocalSource {
			res.Local++
		} else {
			res.Production++
		}
	}
	res.Summary = summarize(res)
	r.logger().Info("installed plugins", "total", res.Total, "implied", res.Implied, "local", res.Local)
	return res, nil
}

func (r *Reconciler) logger() *log.Logger {
	if r.Logger == nil {
		return discard
	}
	return r.Logger
}

func summarize(res *Result) string {
	var b strings.Builder
	if len(res.AlreadyInstalled) > 0 {
		fmt.Fprintf(&b, "Already installed: %s.", strings.Join(res.AlreadyInstalled, ", "))
	}
	if res.Total > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		names := make([]string, len(res.Installed))
		for i, p := range res.Installed {
			names[i] = p.Spec
			if p.IsImplied {
				names[i] += " (implied)"
			}
		}
		fmt.Fprintf(&b, "Installed %d %s: %s.", res.Total, plural(res.Total, "plugin", "plugins"), strings.Join(names, ", "))
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}
