package builder

// === Link & Media Attributes ===

// Href sets the href attribute
func (b *ElementBuilder) Href(href string) *ElementBuilder {
	b.props["href"] = href
	return b
}

// Rel sets the rel attribute
func (b *ElementBuilder) Rel(rel string) *ElementBuilder {
	b.props["rel"] = rel
	return b
}

// Target sets the target attribute
func (b *ElementBuilder) Target(target string) *ElementBuilder {
	b.props["target"] = target
	return b
}

// Src sets the src attribute
func (b *ElementBuilder) Src(src string) *ElementBuilder {
	b.props["src"] = src
	return b
}

// Alt sets the alt attribute
func (b *ElementBuilder) Alt(alt string) *ElementBuilder {
	b.props["alt"] = alt
	return b
}

// Loading sets the loading attribute (lazy, eager)
func (b *ElementBuilder) Loading(loading string) *ElementBuilder {
	b.props["loading"] = loading
	return b
}

// Title sets the title attribute
func (b *ElementBuilder) Title(title string) *ElementBuilder {
	b.props["title"] = title
	return b
}

// === Data Attributes ===

// Data sets a data attribute
func (b *ElementBuilder) Data(key, value string) *ElementBuilder {
	b.props["data-"+key] = value
	return b
}

// === Custom Attributes ===

// Attr sets a custom attribute
func (b *ElementBuilder) Attr(key string, value interface{}) *ElementBuilder {
	b.props[key] = value
	return b
}
