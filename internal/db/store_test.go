package db

import (
	"encoding/base64"
	"errors"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/autoassistgroup-dev/AutoAssist-major-saab-onround/internal/models"
)

func TestTicketFilterMatch(t *testing.T) {
	m := TicketFilter{Status: "All", Priority: "High", Search: "a+b"}.match()
	if _, ok := m["status"]; ok {
		t.Fatalf("status All must be ignored")
	}
	if m["priority"] != "High" {
		t.Fatalf("expected priority filter, got %v", m["priority"])
	}
	or, ok := m["$or"].(bson.A)
	if !ok || len(or) != 4 {
		t.Fatalf("expected 4 search clauses, got %v", m["$or"])
	}
	rx := or[0].(bson.M)["ticket_id"].(bson.Regex)
	if rx.Pattern != `a\+b` || rx.Options != "i" {
		t.Fatalf("search must be quoted and case-insensitive, got %+v", rx)
	}
}

func TestTicketFilterReferredAndExclusions(t *testing.T) {
	m := TicketFilter{Status: "Open", ReferredOnly: true, ExcludeIDs: []string{"E1"}}.match()
	if rx, ok := m["status"].(bson.Regex); !ok || rx.Pattern != "Referred" {
		t.Fatalf("referred_only should override status, got %v", m["status"])
	}
	nin := m["ticket_id"].(bson.M)["$nin"].([]string)
	if len(nin) != 1 || nin[0] != "E1" {
		t.Fatalf("unexpected exclusion: %v", nin)
	}
}

func TestTicketFilterWindow(t *testing.T) {
	skip, limit := TicketFilter{Page: 3, PerPage: 25}.window()
	if skip != 50 || limit != 25 {
		t.Fatalf("got skip=%d limit=%d", skip, limit)
	}
	skip, limit = TicketFilter{}.window()
	if skip != 0 || limit != 20 {
		t.Fatalf("defaults: got skip=%d limit=%d", skip, limit)
	}
}

func TestSearchFilterMatch(t *testing.T) {
	m := SearchFilter{Query: "dpf", Classification: "Warranty Claim", Status: "all"}.match()
	if len(m["$or"].(bson.A)) != 5 {
		t.Fatalf("search should cover body as well")
	}
	if m["classification"] != "Warranty Claim" {
		t.Fatalf("missing classification filter")
	}
	if _, ok := m["status"]; ok {
		t.Fatalf("status all must be ignored")
	}
}

func TestBucketsToMapDefaults(t *testing.T) {
	got := bucketsToMap([]models.CountBucket{{Key: "High", Count: 2}, {Key: nil, Count: 4}}, defaultPriorities)
	if got["High"] != 2 || got["Low"] != 0 || len(got) != len(defaultPriorities) {
		t.Fatalf("unexpected buckets: %v", got)
	}
}

func TestPercent(t *testing.T) {
	if percent(1, 3) != 33.33 {
		t.Fatalf("got %v", percent(1, 3))
	}
	if percent(5, 0) != 0 {
		t.Fatalf("zero total must yield 0")
	}
}

func TestSummarizeTechnicians(t *testing.T) {
	sum := summarizeTechnicians([]models.Technician{
		{Role: "Technician", IsActive: true},
		{Role: "Technician", IsActive: false},
		{Role: "Lead Technician", IsActive: true},
	})
	if sum.Total != 3 || sum.Active != 2 || sum.Inactive != 1 || sum.ByRole["Technician"] != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestDecorateForwardedDefaults(t *testing.T) {
	at := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	ft := decorateForwarded(models.Ticket{TicketID: "EAB1234", CreatedAt: at, ForwardedAt: &at})
	if ft.ForwardedFromName != "Unknown" || ft.ForwardedFromRole != "Member" || ft.ForwardedToName != "You" {
		t.Fatalf("unexpected defaults: %+v", ft)
	}
	if ft.ForwardedDate != "Jul 01, 09:00" {
		t.Fatalf("expected London time, got %q", ft.ForwardedDate)
	}

	ft = decorateForwarded(models.Ticket{ForwardedFromMember: &models.MemberRef{Name: "Marc", Role: models.RoleTechDirector}})
	if ft.ForwardedFromName != "Marc" || ft.ForwardedFromRole != models.RoleTechDirector {
		t.Fatalf("member lookup should win: %+v", ft)
	}
}

func TestDuplicateErrorIs(t *testing.T) {
	err := duplicate("Ticket ID already exists")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate error must match ErrDuplicate")
	}
	if err.Error() != "Ticket ID already exists" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

type mapFiles map[string][]byte

func (m mapFiles) ReadFile(path string) ([]byte, error) {
	if b, ok := m[path]; ok {
		return b, nil
	}
	return nil, os.ErrNotExist
}

func TestDocumentContentPrefersStoredData(t *testing.T) {
	doc := models.CommonDocument{
		Name:     "Warranty form",
		FileName: "form.txt",
		FileData: base64.StdEncoding.EncodeToString([]byte("from db")),
		FilePath: "common/form.txt",
	}
	files := mapFiles{"common/form.txt": []byte("from disk")}

	got, err := DocumentContent(doc, files)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if string(got.Data) != "from db" {
		t.Fatalf("expected stored data first, got %q", got.Data)
	}
	if got.MimeType == "" {
		t.Fatalf("expected guessed mime type")
	}

	doc.FileData = "not base64!!"
	got, err = DocumentContent(doc, files)
	if err != nil || string(got.Data) != "from disk" {
		t.Fatalf("expected disk fallback, got %q err=%v", got.Data, err)
	}

	doc.FilePath = ""
	if _, err := DocumentContent(doc, files); !errors.Is(err, ErrNoFileData) {
		t.Fatalf("expected ErrNoFileData, got %v", err)
	}
}

func TestValidateDocumentIntegrity(t *testing.T) {
	if err := ValidateDocumentIntegrity(models.CommonDocument{}); !errors.Is(err, ErrNoFileData) {
		t.Fatalf("empty document should fail, got %v", err)
	}
	ok := models.CommonDocument{FileData: base64.StdEncoding.EncodeToString([]byte("pdf"))}
	if err := ValidateDocumentIntegrity(ok); err != nil {
		t.Fatalf("valid document rejected: %v", err)
	}
	if err := ValidateDocumentIntegrity(models.CommonDocument{FileData: "@@@"}); err == nil {
		t.Fatalf("invalid base64 accepted")
	}
}
