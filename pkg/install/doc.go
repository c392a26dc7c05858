// Package install turns resolved plugin packages into an installation.
//
// [Service.InstallPlugins] is the single exposed operation: it resolves the
// requested packages with their plugin dependencies, hands every package
// not yet installed to an [Installer] in one batch, tags each package as
// explicit or implied and calls the optional reload hook once.
//
// Installation is all or nothing. Resolution completes, including cycle
// detection and resource limits, before the installer runs, and installer
// failures are returned unchanged.
package install
