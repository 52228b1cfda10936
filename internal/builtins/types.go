// Package builtins recognizes JSX's built-in string tags: the set of
// lowercase element names (spec 4.B point 6, "an all-lowercase JSXIdentifier
// ... is a built-in string tag and does not produce a reference") that the
// DOM understands natively, as opposed to a capitalized identifier or member
// expression referring to a user component.
package builtins

// IntrinsicKind buckets a recognized intrinsic tag by the namespace it
// renders into.
type IntrinsicKind string

const (
	IntrinsicHTML IntrinsicKind = "html"
	IntrinsicSVG  IntrinsicKind = "svg"
)

// htmlIntrinsics covers the HTML tags that show up in ordinary JSX.
var htmlIntrinsics = map[string]bool{
	"a": true, "abbr": true, "address": true, "area": true, "article": true,
	"aside": true, "audio": true, "b": true, "base": true, "bdi": true,
	"bdo": true, "blockquote": true, "body": true, "br": true, "button": true,
	"canvas": true, "caption": true, "cite": true, "code": true, "col": true,
	"colgroup": true, "data": true, "datalist": true, "dd": true, "del": true,
	"details": true, "dfn": true, "dialog": true, "div": true, "dl": true,
	"dt": true, "em": true, "embed": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "head": true, "header": true,
	"hgroup": true, "hr": true, "html": true, "i": true, "iframe": true,
	"img": true, "input": true, "ins": true, "kbd": true, "label": true,
	"legend": true, "li": true, "link": true, "main": true, "map": true,
	"mark": true, "menu": true, "meta": true, "meter": true, "nav": true,
	"noscript": true, "object": true, "ol": true, "optgroup": true,
	"option": true, "output": true, "p": true, "param": true, "picture": true,
	"pre": true, "progress": true, "q": true, "rp": true, "rt": true,
	"ruby": true, "s": true, "samp": true, "script": true, "section": true,
	"select": true, "slot": true, "small": true, "source": true, "span": true,
	"strong": true, "style": true, "sub": true, "summary": true, "sup": true,
	"table": true, "tbody": true, "td": true, "template": true,
	"textarea": true, "tfoot": true, "th": true, "thead": true, "time": true,
	"title": true, "tr": true, "track": true, "u": true, "ul": true,
	"var": true, "video": true, "wbr": true,
}

// svgIntrinsics covers the SVG tags that can appear inline in JSX.
var svgIntrinsics = map[string]bool{
	"circle": true, "clipPath": true, "defs": true, "ellipse": true,
	"g": true, "line": true, "linearGradient": true, "mask": true,
	"path": true, "pattern": true, "polygon": true, "polyline": true,
	"radialGradient": true, "rect": true, "stop": true, "svg": true,
	"text": true, "tspan": true, "use": true,
}

// IntrinsicKindOf reports the namespace a recognized intrinsic tag renders
// into, or false if name isn't one this registry knows.
func IntrinsicKindOf(name string) (IntrinsicKind, bool) {
	if htmlIntrinsics[name] {
		return IntrinsicHTML, true
	}
	if svgIntrinsics[name] {
		return IntrinsicSVG, true
	}
	return "", false
}

// IsIntrinsicTag reports whether name is a recognized built-in JSX tag.
// ast.JSXIdentifier.IsIntrinsic only tests the all-lowercase-name rule
// the scope manager uses to decide "does this produce a reference"; this is
// the stricter, closed-vocabulary check a diagnostic or hover layer wants
// before claiming to know what the tag renders as.
func IsIntrinsicTag(name string) bool {
	_, ok := IntrinsicKindOf(name)
	return ok
}
