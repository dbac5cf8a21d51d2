// Package capabilities fetches and parses the hotspot capability list.
package capabilities

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

// Element and attribute names of the capability and programme documents.
//
//	<techs>
//	  <tech name="DAB"><info key="band">III</info></tech>
//	</techs>
//
//	<programmes>
//	  <programme name="News" url="http://..."><info key="genre">news</info></programme>
//	</programmes>
const (
	elemTechs      = "techs"
	elemTech       = "tech"
	elemProgrammes = "programmes"
	elemProgramme  = "programme"
)

type infoXML struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type techXML struct {
	Name  string    `xml:"name,attr"`
	Infos []infoXML `xml:"info"`
}

type programmeXML struct {
	Name  string    `xml:"name,attr"`
	URL   string    `xml:"url,attr"`
	Infos []infoXML `xml:"info"`
}

// Parse reads a capability document and returns its techs in document
// order. On any error no techs are returned.
func Parse(r io.Reader) ([]hotspot.Tech, error) {
	techs := []hotspot.Tech{}
	err := decodeList(r, elemTechs, elemTech, func(d *xml.Decoder, start xml.StartElement) error {
		var tx techXML
		if err := d.DecodeElement(&tx, &start); err != nil {
			return err
		}
		name := strings.TrimSpace(tx.Name)
		if name == "" {
			return fmt.Errorf("tech %d: missing name attribute", len(techs)+1)
		}
		meta, err := infoMap(tx.Infos)
		if err != nil {
			return fmt.Errorf("tech %q: %w", name, err)
		}
		techs = append(techs, hotspot.Tech{Name: name, Metadata: meta})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return techs, nil
}

// ParseProgrammes reads a programme list document.
func ParseProgrammes(r io.Reader) ([]hotspot.ProgrammeInfo, error) {
	programmes := []hotspot.ProgrammeInfo{}
	err := decodeList(r, elemProgrammes, elemProgramme, func(d *xml.Decoder, start xml.StartElement) error {
		var px programmeXML
		if err := d.DecodeElement(&px, &start); err != nil {
			return err
		}
		name := strings.TrimSpace(px.Name)
		url := strings.TrimSpace(px.URL)
		if name == "" {
			return fmt.Errorf("programme %d: missing name attribute", len(programmes)+1)
		}
		if url == "" {
			return fmt.Errorf("programme %q: missing url attribute", name)
		}
		info, err := infoMap(px.Infos)
		if err != nil {
			return fmt.Errorf("programme %q: %w", name, err)
		}
		programmes = append(programmes, hotspot.ProgrammeInfo{Name: name, URL: url, Info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return programmes, nil
}

// decodeList streams a <root><item/>...</root> document, calling fn for each item.
// Errors are reported as hotspot ParseError unless the reader itself failed.
func decodeList(r io.Reader, root, item string, fn func(*xml.Decoder, xml.StartElement) error) error {
	rr := &readErrRecorder{r: r}
	d := xml.NewDecoder(rr)
	d.CharsetReader = charset.NewReaderLabel

	wrap := func(err error) error {
		if rr.err != nil {
			return hotspot.NewError(hotspot.KindIO, "read "+root, rr.err)
		}
		return hotspot.NewError(hotspot.KindParse, "parse "+root, err)
	}

	// Find the root element.
	var rootStart *xml.StartElement
	for rootStart == nil {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return wrap(fmt.Errorf("no <%s> element", root))
			}
			return wrap(err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			if se.Name.Local != root {
				return wrap(fmt.Errorf("unexpected root element <%s>, want <%s>", se.Name.Local, root))
			}
			rootStart = &se
		}
	}

	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return wrap(fmt.Errorf("unexpected end of document inside <%s>", root))
			}
			return wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == item {
				if err := fn(d, t); err != nil {
					return wrap(err)
				}
				continue
			}
			if err := d.Skip(); err != nil {
				return wrap(err)
			}
		case xml.EndElement:
			// The decoder checks nesting, so this closes the root.
			return trailing(d, wrap)
		}
	}
}

// trailing makes sure nothing but whitespace, comments or processing
// instructions follow the root element.
func trailing(d *xml.Decoder, wrap func(error) error) error {
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return wrap(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return wrap(fmt.Errorf("unexpected element <%s> after root", t.Name.Local))
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return wrap(errors.New("unexpected text after root"))
			}
		}
	}
}

func infoMap(infos []infoXML) (map[string]string, error) {
	if len(infos) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(infos))
	for _, in := range infos {
		key := strings.TrimSpace(in.Key)
		if key == "" {
			return nil, errors.New("info element without key")
		}
		m[key] = strings.TrimSpace(in.Value)
	}
	return m, nil
}

// readErrRecorder remembers the first error from the underlying reader so
// I/O failures can be told apart from malformed XML.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (rr *readErrRecorder) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}
