package classifier

// Category groups the vocabulary terms that mark an email as actionable.
type Category string

const (
	CategoryDeliveries Category = "deliveries"
	CategoryTravel     Category = "travel"
	CategoryMeetings   Category = "meetings"
	CategoryDeadlines  Category = "deadlines"
	CategoryEvents     Category = "events"
)

// ImportantVocabulary is matched case-insensitively against a record's full text.
// Terms may repeat across categories; any single hit qualifies.
var ImportantVocabulary = []struct {
	Category Category
	Terms    []string
}{
	{CategoryDeliveries, []string{
		"delivery", "deliver", "package", "shipment", "tracking", "shipped", "shipping", "order",
		"amazon", "fedex", "ups", "dhl", "usps", "arriving", "arrival", "out for delivery",
	}},
	{CategoryTravel, []string{
		"flight", "airline", "boarding", "itinerary", "airport", "booking", "reservation",
		"confirmation", "ticket", "delta", "united", "american airlines", "southwest",
		"check-in", "departure", "arrival", "airlines", "travel",
	}},
	{CategoryMeetings, []string{
		"interview", "meeting", "appointment", "schedule", "zoom", "teams", "google meet",
		"call", "hiring", "recruitment", "careers", "position", "role", "hiring manager",
	}},
	{CategoryDeadlines, []string{
		"deadline", "due", "reminder", "confirm", "confirmation", "invoice", "bill",
		"payment", "renewal", "subscription", "trial", "expire", "expiry", "due date",
	}},
	{CategoryEvents, []string{
		"event", "appointment", "reservation", "booking", "rsvp", "invitation", "calendar",
	}},
}

// RecentIndicators are matched against the date field only.
var RecentIndicators = []string{
	"hour", "minute", "today", "yesterday",
	"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec",
	"2024", "2025", "2026",
}
