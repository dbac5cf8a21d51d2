package capabilities

import (
	"encoding/xml"
	"io"
	"sort"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

type techsDoc struct {
	XMLName xml.Name  `xml:"techs"`
	Techs   []techXML `xml:"tech"`
}

type programmesDoc struct {
	XMLName    xml.Name       `xml:"programmes"`
	Programmes []programmeXML `xml:"programme"`
}

// Encode writes techs as a capability document that Parse reads back.
// Info entries are written sorted by key.
func Encode(w io.Writer, techs []hotspot.Tech) error {
	doc := techsDoc{Techs: make([]techXML, len(techs))}
	for i, t := range techs {
		doc.Techs[i] = techXML{Name: t.Name, Infos: infoList(t.Metadata)}
	}
	return encodeDoc(w, doc)
}

// EncodeProgrammes writes a programme list document.
func EncodeProgrammes(w io.Writer, programmes []hotspot.ProgrammeInfo) error {
	doc := programmesDoc{Programmes: make([]programmeXML, len(programmes))}
	for i, p := range programmes {
		doc.Programmes[i] = programmeXML{Name: p.Name, URL: p.URL, Infos: infoList(p.Info)}
	}
	return encodeDoc(w, doc)
}

func encodeDoc(w io.Writer, doc any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func infoList(m map[string]string) []infoXML {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	infos := make([]infoXML, len(keys))
	for i, k := range keys {
		infos[i] = infoXML{Key: k, Value: m[k]}
	}
	return infos
}
