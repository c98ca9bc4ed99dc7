// Package markdown discovers content documents on disk, parses their front
// matter, derives collection defaults (dates and slugs from post filenames,
// permalinks from collection patterns) and renders bodies to HTML.
package markdown
