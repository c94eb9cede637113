// Package catalog holds the static clinic content the bot composes replies
// from: greetings, the procedure list, the specialist roster, pricing and
// location texts, the FAQ table, and the booking dialogue texts. It is loaded
// once at startup and treated as read-only afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed default.json
var defaultCatalog []byte

// Procedure is one bookable procedure. Procedures keep their declared order:
// the same 1-based index is used for numeric selection during booking.
type Procedure struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Specialist is one member of the medical team.
type Specialist struct {
	Name          string `json:"name"`
	Specialty     string `json:"specialty"`
	Experience    string `json:"experience"`
	Certification string `json:"certification"`
}

// Hours describes opening hours per day group.
type Hours struct {
	Weekdays string `json:"weekdays"`
	Saturday string `json:"saturday"`
	Sunday   string `json:"sunday"`
}

// Location holds address, hours and contact texts.
type Location struct {
	Address string `json:"address"`
	Hours   Hours  `json:"hours"`
	Contact string `json:"contact"`
}

// FAQEntry maps explicit match keywords to a canned answer.
type FAQEntry struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Keywords []string `json:"keywords"`
}

// Button is a suggested action attached to a reply.
type Button struct {
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// BookingTexts holds the user-facing texts of the appointment dialogue.
type BookingTexts struct {
	Overview       []string `json:"overview"`
	AskName        string   `json:"ask_name"`
	AskPhone       string   `json:"ask_phone"`
	AskEmail       string   `json:"ask_email"`
	AskProcedure   string   `json:"ask_procedure"`
	AskDate        string   `json:"ask_date"`
	AskTime        string   `json:"ask_time"`
	ConfirmLeadIn  string   `json:"confirm_lead_in"`
	ConfirmHint    string   `json:"confirm_hint"`
	Confirmed      string   `json:"confirmed"`
	Cancelled      string   `json:"cancelled"`
	Restarted      string   `json:"restarted"`
	PersistFailure string   `json:"persist_failure"`
}

// Catalog is the full clinic content catalog.
type Catalog struct {
	Greetings         []string     `json:"greetings"`
	MenuOptions       []string     `json:"menu_options"`
	ServicesTitle     string       `json:"services_title"`
	ServicesNote      string       `json:"services_note"`
	Procedures        []Procedure  `json:"procedures"`
	SpecialistsTitle  string       `json:"specialists_title"`
	Specialists       []Specialist `json:"specialists"`
	PricingDisclaimer string       `json:"pricing_disclaimer"`
	PricingButtons    []Button     `json:"pricing_buttons"`
	Location          Location     `json:"location"`
	ThanksReply       string       `json:"thanks_reply"`
	FallbackReply     string       `json:"fallback_reply"`
	FAQ               []FAQEntry   `json:"faq"`
	Booking           BookingTexts `json:"booking"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return parse(defaultCatalog)
}

// LoadFile reads and validates a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that every field the composer depends on is present.
// A catalog missing keys fails at startup instead of at reply time.
func (c *Catalog) Validate() error {
	if len(c.Greetings) == 0 {
		return fmt.Errorf("catalog: at least one greeting required")
	}
	if len(c.MenuOptions) < 3 {
		return fmt.Errorf("catalog: at least 3 menu options required, got %d", len(c.MenuOptions))
	}
	if len(c.Procedures) == 0 {
		return fmt.Errorf("catalog: at least one procedure required")
	}
	seen := make(map[string]struct{}, len(c.Procedures))
	for i, p := range c.Procedures {
		if p.ID == "" || p.DisplayName == "" {
			return fmt.Errorf("catalog: procedure %d missing id or display_name", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("catalog: duplicate procedure id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if len(c.Specialists) == 0 {
		return fmt.Errorf("catalog: at least one specialist required")
	}
	if c.PricingDisclaimer == "" {
		return fmt.Errorf("catalog: pricing_disclaimer required")
	}
	if c.Location.Address == "" || c.Location.Contact == "" {
		return fmt.Errorf("catalog: location address and contact required")
	}
	if c.ThanksReply == "" || c.FallbackReply == "" {
		return fmt.Errorf("catalog: thanks_reply and fallback_reply required")
	}
	for i, f := range c.FAQ {
		if f.Answer == "" || len(f.Keywords) == 0 {
			return fmt.Errorf("catalog: faq entry %d needs an answer and keywords", i+1)
		}
	}
	b := c.Booking
	required := map[string]string{
		"ask_name":        b.AskName,
		"ask_phone":       b.AskPhone,
		"ask_email":       b.AskEmail,
		"ask_procedure":   b.AskProcedure,
		"ask_date":        b.AskDate,
		"ask_time":        b.AskTime,
		"confirm_lead_in": b.ConfirmLeadIn,
		"confirm_hint":    b.ConfirmHint,
		"confirmed":       b.Confirmed,
		"cancelled":       b.Cancelled,
		"restarted":       b.Restarted,
		"persist_failure": b.PersistFailure,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("catalog: booking.%s required", key)
		}
	}
	return nil
}

// ProcedureNames returns the display names in catalog order.
func (c *Catalog) ProcedureNames() []string {
	names := make([]string, len(c.Procedures))
	for i, p := range c.Procedures {
		names[i] = p.DisplayName
	}
	return names
}
