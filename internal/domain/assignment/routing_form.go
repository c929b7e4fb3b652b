package assignment

// Attribute is one team-scoped attribute value set assigned to a user
// (e.g. Region -> [EMEA]).
type Attribute struct {
	ID     string
	Name   string
	Values []string
}

// AttributeFilter is one condition of a routing-form route's attribute
// query: the attribute it tests and the value the response matched.
type AttributeFilter struct {
	AttributeID string
	Value       string
}

type Route struct {
	ID               string
	AttributeFilters []AttributeFilter
}

type RoutingForm struct {
	Routes []Route
}

// FormResponse is the submitted routing-form response that produced a
// booking, together with the route the router chose for it.
type FormResponse struct {
	ID            int64
	ChosenRouteID string
	Form          RoutingForm
}

func (f *FormResponse) ChosenRoute() *Route {
	for i := range f.Form.Routes {
		if f.Form.Routes[i].ID == f.ChosenRouteID {
			return &f.Form.Routes[i]
		}
	}
	return nil
}

// MatchOrganizerAttributes evaluates a route's attribute query against the
// organizer's own attribute values and returns the "{name}: {value}" pairs
// that matched. Filters referencing attributes the organizer does not hold,
// or carrying no value, produce nothing.
func MatchOrganizerAttributes(route *Route, organizerAttributes []Attribute) []AttributeMatch {
	var matches []AttributeMatch
	for _, filter := range route.AttributeFilters {
		if filter.Value == "" {
			continue
		}
		for _, attr := range organizerAttributes {
			if attr.ID == filter.AttributeID {
				matches = append(matches, AttributeMatch{Name: attr.Name, Value: filter.Value})
				break
			}
		}
	}
	return matches
}
