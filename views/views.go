// Package views holds the default page templates. Each page is an embedded
// html/template set (the shared layout plus one page file) exposed as a
// templ.Component, so callers can swap any page for their own component.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/markdown"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"pathEscape": PathEscape,
}

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{
		"home", "post", "admin_login", "admin_dashboard", "admin_editor", "not_found", "server_error",
	} {
		pages[name] = template.Must(template.New("layout.html").Funcs(funcs).ParseFS(files,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
}

// page is the data every template receives.
type page struct {
	Site   SiteConfig
	Meta   PageMeta
	JSONLD template.JS
	Admin  bool
	Data   any
}

func render(name string, p page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("views: unknown page %q", name)
		}
		if p.Meta.Title == "" {
			p.Meta.Title = p.Site.Name
		}
		return t.ExecuteTemplate(w, "layout.html", p)
	})
}

// Home lists published posts, newest first.
func Home(site SiteConfig, posts []content.Post) templ.Component {
	return render("home", page{
		Site: site,
		Meta: PageMeta{
			Title:       site.Name,
			Description: site.Description,
			URL:         buildURL(site.URL),
			OGType:      "website",
		},
		JSONLD: template.JS(WebsiteJsonLD(site)),
		Data:   posts,
	})
}

type postData struct {
	Post   content.Post
	Author string
	Body   template.HTML
}

// Post renders a single post with its Markdown body converted to HTML.
func Post(site SiteConfig, post content.Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		body, err := markdown.ToHTML(post.Content)
		if err != nil {
			return fmt.Errorf("views: render %s: %w", post.Slug, err)
		}
		desc := post.Excerpt
		if desc == "" {
			desc = site.Description
		}
		return render("post", page{
			Site: site,
			Meta: PageMeta{
				Title:       post.Title + " | " + site.Name,
				Description: desc,
				URL:         PostURL(site, post.Slug),
				OGType:      "article",
			},
			JSONLD: template.JS(BlogPostingJsonLD(site, post)),
			Data: postData{
				Post:   post,
				Author: postAuthor(site, post),
				Body:   template.HTML(body),
			},
		}).Render(ctx, w)
	})
}

type loginData struct {
	ShowError bool
	CSRF      string
}

// AdminLogin is the password form.
func AdminLogin(site SiteConfig, showError bool, csrfToken string) templ.Component {
	return render("admin_login", page{
		Site: site,
		Meta: PageMeta{Title: "Admin | " + site.Name},
		Data: loginData{ShowError: showError, CSRF: csrfToken},
	})
}

type dashboardData struct {
	Posts   []content.Post
	Message string
	CSRF    string
}

// AdminDashboard lists every post with edit and delete actions.
func AdminDashboard(site SiteConfig, posts []content.Post, message, csrfToken string) templ.Component {
	return render("admin_dashboard", page{
		Site:  site,
		Meta:  PageMeta{Title: "Admin | " + site.Name},
		Admin: true,
		Data:  dashboardData{Posts: posts, Message: message, CSRF: csrfToken},
	})
}

type editorData struct {
	Post    content.Post
	IsNew   bool
	Message string
	CSRF    string
}

// AdminEditor is the create and edit form. Slugs are fixed once a post exists.
func AdminEditor(site SiteConfig, post content.Post, isNew bool, message, csrfToken string) templ.Component {
	title := "New post"
	if !isNew {
		title = "Edit " + post.Title
	}
	return render("admin_editor", page{
		Site:  site,
		Meta:  PageMeta{Title: title + " | " + site.Name},
		Admin: true,
		Data:  editorData{Post: post, IsNew: isNew, Message: message, CSRF: csrfToken},
	})
}

// NotFound is the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return render("not_found", page{
		Site: site,
		Meta: PageMeta{Title: "Not found | " + site.Name},
	})
}

// ServerError is the 500 page.
func ServerError(site SiteConfig) templ.Component {
	return render("server_error", page{
		Site: site,
		Meta: PageMeta{Title: "Error | " + site.Name},
	})
}
