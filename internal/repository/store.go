package repository

import "github.com/JonnyWalker81/heldairy/backend/pkg/supabase"

// NewSupabaseStore wires the PostgREST-backed repositories
func NewSupabaseStore(client *supabase.Client) *Store {
	return &Store{
		Entries:   NewEntryRepository(client),
		Summaries: NewSummaryRepository(client),
		Advice:    NewAdviceRepository(client),
		Insights:  NewInsightRepository(client),
		Tracking:  NewTrackingRepository(client),
	}
}
