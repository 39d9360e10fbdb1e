package broker

import (
	"encoding/json"
	"strconv"

	"orderdesk/internal/model"
)

// The backend's reference-data endpoints are loosely shaped: field names
// vary by deployment revision. These raw types absorb every variant and
// normalize to the canonical model types.

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
	return nil
}

// flexMember is one group member: either a plain string or {name: ...}.
type flexMember string

func (f *flexMember) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexMember(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*f = flexMember(obj.Name)
	return nil
}

// rawGroup is the wire shape of one group: {name|group_name|id,
// members|clients, multiplier?}.
type rawGroup struct {
	Name       flexString   `json:"name"`
	GroupName  flexString   `json:"group_name"`
	ID         flexString   `json:"id"`
	Members    []flexMember `json:"members"`
	Clients    []flexMember `json:"clients"`
	Multiplier *float64     `json:"multiplier"`
}

func (g rawGroup) normalize() model.Group {
	name := string(g.Name)
	if name == "" {
		name = string(g.GroupName)
	}
	if name == "" {
		name = string(g.ID)
	}

	members := g.Members
	if len(members) == 0 {
		members = g.Clients
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, string(m))
	}

	mult := 1.0
	if g.Multiplier != nil {
		mult = *g.Multiplier
	}

	return model.Group{
		GroupName:   name,
		NoOfClients: len(names),
		Multiplier:  mult,
		ClientNames: names,
	}
}

// rawSymbolResult is one search hit: {id|value|symbol|text, text|label}.
type rawSymbolResult struct {
	ID     flexString `json:"id"`
	Value  flexString `json:"value"`
	Symbol flexString `json:"symbol"`
	Text   flexString `json:"text"`
	Label  flexString `json:"label"`
}

func (r rawSymbolResult) normalize() model.SymbolRef {
	value := string(r.ID)
	if value == "" {
		value = string(r.Value)
	}
	if value == "" {
		value = string(r.Symbol)
	}
	if value == "" {
		value = string(r.Text)
	}

	label := string(r.Text)
	if label == "" {
		label = string(r.Label)
	}
	if label == "" {
		label = string(r.ID)
	}

	return model.SymbolRef{Value: value, Label: label}
}
