package template

// voidElements are elements that cannot have children and have no
// closing tag. These are self-closing in HTML5.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// rawTextElements are elements whose content is literal text: no child
// elements and no interpolation inside them.
var rawTextElements = map[string]bool{
	"script": true,
	"style":  true,
}

// IsRawTextElement returns true if the element's content is parsed as
// literal text.
func IsRawTextElement(tag string) bool {
	return rawTextElements[tag]
}
