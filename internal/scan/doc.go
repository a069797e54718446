// Package scan discovers launchable applications on disk.
//
// Source is the narrow contract the registry consumes: given directories it
// returns candidate apps plus non-fatal errors. The filesystem implementation
// walks every directory concurrently, parses matching desktop entries, and
// returns a sorted list with structural duplicates removed. Unreadable
// directories and unparseable entries are collected, never raised.
package scan
