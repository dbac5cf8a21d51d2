package capabilities_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
	"github.com/ebulabs/broadcasting-hotspot/internal/infra/capabilities"
)

func TestParseExampleDocument(t *testing.T) {
	techs, err := capabilities.Parse(strings.NewReader(`<techs><tech name="DAB"/><tech name="FM"/></techs>`))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(techs) != 2 || techs[0].Name != "DAB" || techs[1].Name != "FM" {
		t.Errorf("techs = %+v, want [DAB FM]", techs)
	}
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	for _, n := range []int{0, 1, 5, 50} {
		t.Run(fmt.Sprintf("%d techs", n), func(t *testing.T) {
			var sb strings.Builder
			sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n<techs>\n")
			for i := 0; i < n; i++ {
				fmt.Fprintf(&sb, "  <tech name=\"tech-%02d\"/>\n", i)
			}
			sb.WriteString("</techs>\n")

			techs, err := capabilities.Parse(strings.NewReader(sb.String()))
			if err != nil {
				t.Fatalf("Parse error: %v", err)
			}
			if techs == nil {
				t.Fatal("Parse should return a non-nil list")
			}
			if len(techs) != n {
				t.Fatalf("Expected %d techs, got %d", n, len(techs))
			}
			for i, tech := range techs {
				if want := fmt.Sprintf("tech-%02d", i); tech.Name != want {
					t.Errorf("techs[%d] = %q, want %q", i, tech.Name, want)
				}
			}
		})
	}
}

func TestParseMetadata(t *testing.T) {
	doc := `<techs>
		<!-- served by hotspotd -->
		<tech name="DAB">
			<info key="band"> III </info>
			<info key="codec">mp2</info>
			<info key="codec">aac</info>
			<unknown>ignored</unknown>
		</tech>
		<extra><tech name="nested"/></extra>
		<tech name="FM"></tech>
	</techs>`

	techs, err := capabilities.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(techs) != 2 {
		t.Fatalf("Expected 2 techs, got %+v", techs)
	}

	dab := techs[0]
	if dab.Metadata["band"] != "III" {
		t.Errorf("band = %q, want III", dab.Metadata["band"])
	}
	if dab.Metadata["codec"] != "aac" {
		t.Errorf("codec = %q, duplicate keys should keep the last value", dab.Metadata["codec"])
	}
	if techs[1].Metadata != nil {
		t.Errorf("FM should have no metadata, got %v", techs[1].Metadata)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty document", ""},
		{"not xml", "DAB, FM"},
		{"wrong root", `<capabilities><tech name="DAB"/></capabilities>`},
		{"unclosed root", `<techs><tech name="DAB"/>`},
		{"mismatched tags", `<techs><tech name="DAB"></techs></tech>`},
		{"missing name", `<techs><tech name="DAB"/><tech/></techs>`},
		{"blank name", `<techs><tech name="  "/></techs>`},
		{"info without key", `<techs><tech name="DAB"><info>III</info></tech></techs>`},
		{"second root", `<techs><tech name="DAB"/></techs><techs/>`},
		{"trailing text", `<techs><tech name="DAB"/></techs>garbage`},
		{"bad entity", `<techs><tech name="D&B"/></techs>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			techs, err := capabilities.Parse(strings.NewReader(tt.doc))
			if !errors.Is(err, hotspot.ErrParse) {
				t.Fatalf("Expected ErrParse, got %v", err)
			}
			if techs != nil {
				t.Errorf("Expected no techs on failure, got %+v", techs)
			}
		})
	}
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset by peer")
}

func TestParseReaderFailureIsIO(t *testing.T) {
	techs, err := capabilities.Parse(&failingReader{data: `<techs><tech name="DAB"/>`})
	if !errors.Is(err, hotspot.ErrIO) {
		t.Fatalf("Expected ErrIO, got %v", err)
	}
	if techs != nil {
		t.Error("Expected no techs on failure")
	}
}

func TestParseLatin1(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><techs><tech name=\"Radio Fran\xe7aise\"/></techs>"

	techs, err := capabilities.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if techs[0].Name != "Radio Française" {
		t.Errorf("Name = %q", techs[0].Name)
	}
}

func TestParseProgrammes(t *testing.T) {
	doc := `<programmes>
		<programme name="News" url="http://hotspot:8000/news.mp3">
			<info key="genre">news</info>
		</programme>
		<programme name="Music" url="http://hotspot:8000/music.mp3"/>
	</programmes>`

	programmes, err := capabilities.ParseProgrammes(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseProgrammes error: %v", err)
	}
	if len(programmes) != 2 {
		t.Fatalf("Expected 2 programmes, got %d", len(programmes))
	}
	if programmes[0].Name != "News" || programmes[0].URL != "http://hotspot:8000/news.mp3" {
		t.Errorf("programmes[0] = %+v", programmes[0])
	}
	if programmes[0].Info["genre"] != "news" {
		t.Errorf("genre = %q", programmes[0].Info["genre"])
	}
}

func TestParseProgrammesErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing url", `<programmes><programme name="News"/></programmes>`},
		{"missing name", `<programmes><programme url="http://x/news"/></programmes>`},
		{"techs root", `<techs/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			programmes, err := capabilities.ParseProgrammes(strings.NewReader(tt.doc))
			if !errors.Is(err, hotspot.ErrParse) {
				t.Fatalf("Expected ErrParse, got %v", err)
			}
			if programmes != nil {
				t.Error("Expected no programmes on failure")
			}
		})
	}
}
