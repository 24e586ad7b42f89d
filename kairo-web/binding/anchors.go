package binding

import "kairo/kairo-web/dom"

// Anchor names one logical element of a view together with every id it
// has carried across markup revisions, most current first.
type Anchor struct {
	Name     string
	IDs      []string
	Required bool
}

// Anchors maps logical names to the elements found for them.
type Anchors map[string]*dom.Element

// Get returns the element for name, or nil when the view lacks it.
func (a Anchors) Get(name string) *dom.Element { return a[name] }

// resolve looks every anchor up once. missing lists required anchors
// that could not be found under any alias.
func resolve(page *dom.Document, anchors []Anchor) (found Anchors, missing []string) {
	found = Anchors{}
	for _, a := range anchors {
		for _, id := range a.IDs {
			if el := page.ByID(id); el != nil {
				found[a.Name] = el
				break
			}
		}
		if found[a.Name] == nil && a.Required {
			missing = append(missing, a.Name)
		}
	}
	return found, missing
}
