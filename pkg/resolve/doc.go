// Package resolve computes the full set of plugin packages to install for a
// set of explicitly requested packages.
//
// # Algorithm
//
// Resolution is a breadth-first worklist traversal, so stack depth does not
// grow with the length of a dependency chain:
//
//  1. The worklist is seeded with the requested specs.
//  2. Each popped spec is handled once; the first constraint seen for a
//     name wins and later ones are ignored.
//  3. Already installed packages are never reinstalled, but their manifest
//     is read from the local copy so that their edges take part in cycle
//     detection.
//  4. Every other package is added to the install set, its metadata is
//     looked up and its plugin dependency manifest discovered. When the
//     lookup fails only the local copy is consulted.
//  5. Each declared dependency becomes a node and an edge. The edge is
//     checked for a cycle immediately, so the run fails on the first edge
//     that closes one.
//
// After the worklist drains the whole graph is validated once more and an
// overall order (dependencies first) is computed.
//
// # Limits
//
// A [Guard] enforces hard ceilings on distinct packages, dependencies per
// package and worklist iterations. The package ceiling is checked before a
// node is added, so no lookup is ever issued for a package past the limit.
package resolve
