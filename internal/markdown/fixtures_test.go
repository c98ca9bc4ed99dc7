package markdown

import (
	"testing/fstest"
	"time"
)

const aboutDraft = `---
permalink: /
title: "About me"
excerpt: "About me"
author_profile: true
redirect_from: 
  - /about/
  - /about.html
---

I am a mathematician. See my [publications](/publications/) and
[CV](https://example.org/cv.pdf).
`

const blogPost = `---
title: 'Blog Post number 1'
date: 2012-08-14
permalink: /posts/2012/08/blog-post-1/
tags:
  - cool posts
  - category1
---

Retries with backoff:

` + "```go\nfor attempt := 0; attempt < 3; attempt++ {}\n```\n"

func fixtureFS() fstest.MapFS {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return fstest.MapFS{
		"_pages/about.md":                   {Data: []byte(aboutDraft), ModTime: modified},
		"_pages/about-2.md":                 {Data: []byte(aboutDraft), ModTime: modified.Add(time.Hour)},
		"_posts/2012-08-14-blog-post-1.md":  {Data: []byte(blogPost), ModTime: modified},
		"_posts/2013-01-02-untitled-post.md": {Data: []byte("---\ntitle: Untitled\n---\nBody\n"), ModTime: modified},
		"_drafts/idea.md":                   {Data: []byte("---\ntitle: Idea\n---\n"), ModTime: modified},
		"_publications/paper.md":            {Data: []byte("---\ntitle: Paper\ncategory: manuscripts\n---\n"), ModTime: modified},
		"_pages/broken.md":                  {Data: []byte("---\ntitle: [unclosed\n---\n"), ModTime: modified},
		"notes.txt":                         {Data: []byte("not content"), ModTime: modified},
		".git/config.md":                    {Data: []byte("---\ntitle: hidden\n---\n"), ModTime: modified},
	}
}
