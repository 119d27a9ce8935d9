package components

import "github.com/matthewriabinin/blog/pkg/styling"

// Stylesheet returns the CSS for every component in this package
func Stylesheet() *styling.Sheet {
	s := styling.NewSheet()
	s.Add("base", `
		body { margin: 0; font-family: Georgia, serif; color: #222; }
		a { color: #1976d2; text-decoration: none; }
		img { max-width: 100%; }
	`)
	s.Add("chrome", `
		.container { max-width: 1200px; margin: 0 auto; padding: 0 24px; }
		.blog-header { border-bottom: 1px solid #e0e0e0; }
		.header-toolbar { display: flex; justify-content: center; padding: 8px 0; }
		.header-title a { color: inherit; }
		.header-sections { display: flex; justify-content: space-between; overflow-x: auto; }
		.header-section { padding: 8px; flex-shrink: 0; }
		.blog-footer { margin-top: 64px; padding: 48px 0; background: #fafafa; text-align: center; }
		.footer-description { color: #757575; }
	`)
	s.Add("featured", `
		.main-featured { position: relative; margin: 16px 0 32px; padding: 48px; color: #fff; background: #424242; }
		.main-featured img { display: none; }
		.main-featured .lede { font-size: 1.25rem; }
		.main-featured a { color: #fff; }
		.featured-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 32px; }
		.featured-post > a { display: flex; color: inherit; border: 1px solid #e0e0e0; }
		.featured-post-body { flex: 1; padding: 16px; }
		.featured-post img { width: 160px; object-fit: cover; }
	`)
	s.Add("index", `
		.main-grid { display: grid; grid-template-columns: 2fr 1fr; gap: 40px; margin-top: 24px; }
		.firehose-posts .markdown { padding: 24px 0; }
		.sidebar-about { padding: 16px; background: #eeeeee; }
		.sidebar ul { list-style: none; padding: 0; }
		.social-icon::before { content: attr(data-icon); margin-right: 8px; color: #757575; }
		@media (max-width: 900px) { .main-grid { grid-template-columns: 1fr; } }
	`)
	s.Add("post", `
		.post { margin-top: 24px; }
		.markdown pre { padding: 16px; overflow-x: auto; background: #f5f5f5; }
		.markdown blockquote { margin-left: 0; padding-left: 16px; border-left: 4px solid #e0e0e0; }
		.markdown table { border-collapse: collapse; }
		.markdown th, .markdown td { padding: 4px 12px; border: 1px solid #e0e0e0; }
	`)
	return s
}
