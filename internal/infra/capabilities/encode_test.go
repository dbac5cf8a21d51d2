package capabilities

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ebulabs/broadcasting-hotspot/internal/domain/hotspot"
)

func TestEncodeParsesBack(t *testing.T) {
	techs := []hotspot.Tech{
		{Name: "DAB", Metadata: map[string]string{"band": "III", "ensemble": "BBC National"}},
		{Name: "FM"},
		{Name: "DRM & AM"},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, techs); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "<?xml") {
		t.Errorf("document should start with an XML header: %q", buf.String())
	}
	if !strings.Contains(buf.String(), `<info key="band">III</info>`) {
		t.Errorf("info not encoded: %s", buf.String())
	}

	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(got) != 3 || got[0].Name != "DAB" || got[1].Name != "FM" || got[2].Name != "DRM & AM" {
		t.Fatalf("parsed = %+v", got)
	}
	if got[0].Metadata["ensemble"] != "BBC National" {
		t.Errorf("metadata = %v", got[0].Metadata)
	}
}

func TestEncodeEmptyList(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, nil); err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no techs, got %v", got)
	}
}

func TestEncodeProgrammesSortsInfo(t *testing.T) {
	programmes := []hotspot.ProgrammeInfo{{
		Name: "Radio 1",
		URL:  "http://hotspot:8000/radio1.mp3?a=1&b=2",
		Info: map[string]string{"genre": "pop", "bitrate": "128"},
	}}

	var buf bytes.Buffer
	if err := EncodeProgrammes(&buf, programmes); err != nil {
		t.Fatalf("EncodeProgrammes error: %v", err)
	}
	out := buf.String()
	if strings.Index(out, `key="bitrate"`) > strings.Index(out, `key="genre"`) {
		t.Errorf("info should be sorted by key: %s", out)
	}

	got, err := ParseProgrammes(&buf)
	if err != nil {
		t.Fatalf("ParseProgrammes error: %v", err)
	}
	if got[0].URL != "http://hotspot:8000/radio1.mp3?a=1&b=2" {
		t.Errorf("URL = %q", got[0].URL)
	}
}
