/*
Package seed loads starter knowledge entries into an empty installation.

The built-in sample set covers the questions a salon front desk fields most
often; real deployments load their own entries from a JSON file instead.
*/
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// Entry is one seedable knowledge entry.
type Entry struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Variations []string `json:"variations,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// SampleEntries is the built-in salon starter set.
var SampleEntries = []Entry{
	{
		Question: "What are your working hours?",
		Answer:   "We're open Monday to Saturday from 9 AM to 7 PM. We're closed on Sundays.",
		Tags:     []string{"hours", "schedule", "timing"},
	},
	{
		Question: "Do you have parking available?",
		Answer:   "Yes, we have complimentary valet parking for all our clients.",
		Tags:     []string{"parking", "facilities", "amenities"},
	},
	{
		Question: "What services do you offer?",
		Answer:   "We offer haircuts, styling, coloring, highlights, spa treatments, manicures, pedicures, facials, and bridal makeup.",
		Tags:     []string{"services", "treatments", "offerings"},
	},
	{
		Question: "How much does a haircut cost?",
		Answer:   "Our haircut prices start from ₹800 for basic cuts and go up to ₹2500 for premium styling with senior stylists.",
		Tags:     []string{"pricing", "cost", "haircut"},
	},
	{
		Question: "Do I need an appointment?",
		Answer:   "While we accept walk-ins, we highly recommend booking an appointment to avoid wait times. You can book online or call us.",
		Tags:     []string{"appointment", "booking", "reservation"},
	},
	{
		Question: "Where are you located?",
		Answer:   "We're located in Bandra West, Mumbai, near Linking Road. The exact address is available on our website.",
		Tags:     []string{"location", "address", "directions"},
	},
	{
		Question: "Do you offer bridal packages?",
		Answer:   "Yes! We have comprehensive bridal packages including makeup, hair styling, pre-bridal treatments, and trial sessions. Prices start from ₹15,000.",
		Tags:     []string{"bridal", "wedding", "packages", "services"},
	},
	{
		Question: "Can I cancel or reschedule my appointment?",
		Answer:   "Yes, you can cancel or reschedule up to 24 hours before your appointment without any charges. Please call us or use our online portal.",
		Tags:     []string{"cancellation", "policy", "reschedule"},
	},
}

// LoadFile reads seed entries from a JSON file (an array of Entry objects).
func LoadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return entries, nil
}

// Apply creates the given entries, skipping any whose question already
// exists (by normalized comparison). Returns the number created.
func Apply(store storage.Store, entries []Entry) (int, error) {
	existing, err := store.ListEntries()
	if err != nil {
		return 0, fmt.Errorf("failed to list existing entries: %w", err)
	}

	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[storage.NormalizeText(e.Question)] = true
	}

	created := 0
	for _, e := range entries {
		if seen[storage.NormalizeText(e.Question)] {
			continue
		}
		_, err := store.CreateEntry(storage.CreateEntryInput{
			Question:   e.Question,
			Answer:     e.Answer,
			Type:       storage.EntryTypeBusinessContext,
			Variations: e.Variations,
			Tags:       e.Tags,
		})
		if err != nil {
			return created, fmt.Errorf("failed to create entry %q: %w", e.Question, err)
		}
		seen[storage.NormalizeText(e.Question)] = true
		created++
	}

	return created, nil
}
