package mock

import "github.com/mikey/site-categorizer/internal/core"

// Failure messages returned by simulated analyses
const (
	analyzeFailureMessage = "An error occurred during analysis. Could not connect to the server."
	batchFailureMessage   = "Could not fetch content from the URL"
	historyFailureMessage = "An error occurred during analysis"
)

// mainCategories are the labels assigned by simulated analyses
var mainCategories = []string{
	"Finance & Insurance",
	"Real Estate",
	"Education",
	"Beauty & Cosmetics",
	"Health & Pharmaceuticals",
	"Hospitals & Clinics",
	"Business",
	"Apps & Systems",
	"Jobs & Careers",
	"Lifestyle Services",
	"Electronics & Digital",
	"Food",
	"Restaurants",
	"Travel & Leisure",
	"Fashion",
	"Entertainment",
	"Daily Goods",
	"Sports & Outdoors",
	"Automotive",
	"Housing & Interior",
	"Pets",
	"Public Gambling",
	"Government & Public Services",
}

// subCategorySamples carry fixed confidences
var subCategorySamples = []core.SubCategory{
	{Name: "SaaS", Confidence: 0.95},
	{Name: "Cloud services", Confidence: 0.87},
	{Name: "Web development", Confidence: 0.82},
	{Name: "Mobile", Confidence: 0.75},
	{Name: "Telecommunications", Confidence: 0.72},
	{Name: "Apparel", Confidence: 0.68},
	{Name: "Home appliances", Confidence: 0.65},
	{Name: "Groceries", Confidence: 0.61},
	{Name: "Household goods", Confidence: 0.58},
	{Name: "Specialty stores", Confidence: 0.55},
}

var descriptions = []string{
	"Provides a cloud based SaaS platform for businesses, focused on automating and streamlining business processes.",
	"An online shopping platform covering a wide range of product categories, known for a friendly interface and fast delivery.",
	"A fintech company offering mobile payments, investment management and personal lending.",
	"A health tech company whose app collects and analyzes health data to give personalized advice.",
	"An online learning platform with diverse content, interactive lessons and flexible schedules.",
}

var targetAudiences = []string{
	"Executives, IT managers and business people at small to large companies looking for efficiency",
	"Online shoppers from their late teens to their forties, especially busy urban professionals",
	"Users in their twenties to forties interested in digital payments and first time investors",
	"Health conscious adults aged 25 to 50, fitness enthusiasts and busy professionals",
	"Students, working adults building new skills and retirees who keep learning",
}

var valuePropositions = []string{
	"Simplifies complex business processes, raising productivity while cutting costs.",
	"A broad catalogue and convenient shopping that save time when finding the right product.",
	"Lower fees than traditional institutions with an interface anyone can use.",
	"Evidence based health advice and continuous monitoring that support a healthier lifestyle.",
	"Learning that is not tied to a place or time, with interactive content that keeps it engaging.",
}

// historyURLs are the sites appearing in the generated history pool
var historyURLs = []string{
	"https://example.com",
	"https://cloud-service.example.org",
	"https://online-shop.example.net",
	"https://finance-app.example.com",
	"https://health-tech.example.org",
	"https://education-platform.example.net",
	"https://travel-site.example.com",
	"https://realestate.example.org",
	"https://food-delivery.example.net",
	"https://beauty-store.example.com",
}

// referenceTaxonomy is the fixed reference category tree
var referenceTaxonomy = core.Categories{
	"IT & Telecommunications": {
		"SaaS":               {"CRM", "Marketing tools", "Communication tools", "Project management"},
		"Cloud services":     {"IaaS", "PaaS", "Storage", "Security"},
		"Web development":    {"Frontend", "Backend", "Full stack", "Design"},
		"Mobile":             {"iOS apps", "Android apps", "Cross platform", "Mobile games"},
		"Telecommunications": {"Internet providers", "Mobile phones", "Landlines", "Business telecom"},
	},
	"Retail & E-commerce": {
		"Apparel":          {"Men", "Women", "Kids", "Sportswear"},
		"Home appliances":  {"Audio", "Television", "Household appliances", "Kitchen appliances"},
		"Groceries":        {"Fresh food", "Processed food", "Beverages", "Health food"},
		"Household goods":  {"Cosmetics", "Toiletries", "Home care", "Pet supplies"},
		"Specialty stores": {"Books", "Sporting goods", "Hobbies", "Jewelry"},
	},
	"Finance & Insurance": {
		"Banking":             {"Retail", "Corporate", "Investment banking", "Online banking"},
		"Securities":          {"Stocks", "Bonds", "Mutual funds", "FX"},
		"Insurance":           {"Life", "Property and casualty", "Medical", "Auto"},
		"Fintech":             {"Payments", "Lending", "Wealth management", "Crypto"},
		"Real estate finance": {"Mortgages", "Property investment", "Leasing", "Funds"},
	},
}

// placeholderSubCategories is returned for main categories outside the reference tree
var placeholderSubCategories = map[string][]string{
	"Subcategory 1": {"Detail 1", "Detail 2", "Detail 3"},
	"Subcategory 2": {"Detail 4", "Detail 5", "Detail 6"},
	"Subcategory 3": {"Detail 7", "Detail 8", "Detail 9"},
}

func copyCategories(src core.Categories) core.Categories {
	out := make(core.Categories, len(src))
	for main, subs := range src {
		out[main] = copySubCategories(subs)
	}
	return out
}

func copySubCategories(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for sub, details := range src {
		out[sub] = append([]string(nil), details...)
	}
	return out
}
