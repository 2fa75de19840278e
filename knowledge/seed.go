package knowledge

// Seed loads a small default knowledge base so the customer-service tools
// answer something useful without an external search backend.
func Seed(s *InMemoryStore) error {
	seed := map[string][]Entry{
		Articles: {
			{Title: "Bali travel guide", Content: "Bali beaches, Ubud rice terraces, temples and culinary tips for first time visitors.", Source: "travelmesh"},
			{Title: "Jakarta culinary tour", Content: "Where to eat in Jakarta: street food, satay, nasi goreng and kerak telor.", Source: "travelmesh"},
			{Title: "Yogyakarta heritage", Content: "Borobudur and Prambanan temples, batik workshops and the Kraton palace in Yogyakarta.", Source: "travelmesh"},
			{Title: "Lombok tips", Content: "Lombok travel tips: Gili islands, Mount Rinjani trekking and best season to visit.", Source: "travelmesh"},
		},
		General: {
			{Title: "Visa on arrival Indonesia", Content: "Many nationalities can obtain a visa on arrival in Indonesia valid for 30 days and extendable once.", Source: "travelmesh"},
			{Title: "Baggage allowance", Content: "Economy class baggage allowance is usually 20 kg checked baggage and 7 kg cabin baggage on domestic flights.", Source: "travelmesh"},
			{Title: "Check-in times", Content: "Hotel check-in usually starts at 14:00 and check-out is at 12:00.", Source: "travelmesh"},
		},
		Currency: {
			{Title: "USD to IDR", Content: "1 USD is roughly 16,000 IDR. Rates are indicative; confirm with your bank.", Source: "travelmesh"},
			{Title: "EUR to IDR", Content: "1 EUR is roughly 17,500 IDR. Rates are indicative; confirm with your bank.", Source: "travelmesh"},
			{Title: "SGD to IDR", Content: "1 SGD is roughly 12,000 IDR. Rates are indicative; confirm with your bank.", Source: "travelmesh"},
		},
	}

	for collection, entries := range seed {
		for _, e := range entries {
			if _, err := s.Store(collection, e); err != nil {
				return err
			}
		}
	}

	return nil
}
