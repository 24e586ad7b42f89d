package app

import (
	"fmt"
	"io"
	"strings"

	"kairo/kairo-web/dom"
)

// Render writes a plain-text picture of the visible page: headings,
// messages, controls with their ids, links with their targets and task
// items with their state.
func Render(w io.Writer, page *dom.Document) error {
	var lines []string
	page.Walk(func(el *dom.Element) bool {
		if !el.Visible() {
			return false
		}
		switch el.Tag() {
		case "h1":
			lines = append(lines, "# "+squash(el.Text()))
			return false
		case "h2", "h3":
			lines = append(lines, "## "+squash(el.Text()))
			return false
		case "label", "script", "style":
			return false
		case "p":
			if line := paragraph(el); line != "" {
				lines = append(lines, line)
			}
			return false
		case "a":
			lines = append(lines, link(el))
			return false
		case "input":
			lines = append(lines, control(el))
		case "button":
			lines = append(lines, button(el))
			return false
		case "li":
			lines = append(lines, item(el))
			return false
		}
		return true
	})
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func paragraph(el *dom.Element) string {
	text := squash(el.Text())
	if text == "" {
		return ""
	}
	var targets []string
	for _, a := range el.QueryAll("a[href]") {
		if href, _ := a.Attr("href"); href != "" {
			targets = append(targets, href)
		}
	}
	if id := el.ID(); id != "" {
		text = "(" + id + ") " + text
	}
	if len(targets) > 0 {
		text += " -> " + strings.Join(targets, " ")
	}
	return text
}

func link(el *dom.Element) string {
	href, _ := el.Attr("href")
	return fmt.Sprintf("%s -> %s", squash(el.Text()), href)
}

func control(el *dom.Element) string {
	typ, _ := el.Attr("type")
	val := el.Value()
	if typ == "password" && val != "" {
		val = strings.Repeat("*", len(val))
	}
	if val == "" {
		val, _ = el.Attr("placeholder")
	}
	return fmt.Sprintf("[%s: %s]", ref(el), val)
}

func button(el *dom.Element) string {
	s := "<" + squash(el.Text()) + ">"
	if id := el.ID(); id != "" {
		s += " #" + id
	}
	if el.Disabled() {
		s += " (disabled)"
	}
	return s
}

func item(el *dom.Element) string {
	mark := " "
	if el.HasClass("completed") {
		mark = "x"
	}
	title := el.Text()
	if t := el.Query(".title"); t != nil {
		title = t.Text()
	}
	return fmt.Sprintf("- [%s] %s", mark, squash(title))
}

func ref(el *dom.Element) string {
	if id := el.ID(); id != "" {
		return "#" + id
	}
	if name, ok := el.Attr("name"); ok {
		return name
	}
	return el.Tag()
}
