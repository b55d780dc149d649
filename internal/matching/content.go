// internal/matching/content.go
package matching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"usahud-crm/internal/models"
)

const propertyURL = "https://usahudhomes.com/properties/"

func money(v float64) string {
	return "$" + humanize.Comma(int64(v))
}

func baths(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ShareEmailSubject is the subject line for a property share email.
func ShareEmailSubject(n int) string {
	return fmt.Sprintf("%d Perfect HUD Homes for You!", n)
}

// ShareEmailBody lists the properties with prices, savings and links.
func ShareEmailBody(clientName string, props []models.Property, customMessage string) string {
	if customMessage == "" {
		customMessage = "Great news! I found some fantastic HUD properties that match what you're looking for."
	}

	var list strings.Builder
	for i, p := range props {
		size := "N/A"
		if p.Sqft > 0 {
			size = humanize.Comma(int64(p.Sqft)) + " sqft"
		}
		fmt.Fprintf(&list, "%d. %s\n   %s, %s %s\n   %d Bed | %s Bath | %s\n   List Price: %s\n",
			i+1, p.Address, p.City, p.State, p.ZipCode, p.Bedrooms, baths(p.Bathrooms), size, money(p.ListPrice))
		if p.EstimatedValue > 0 {
			fmt.Fprintf(&list, "   Estimated Value: %s\n", money(p.EstimatedValue))
			if p.ListPrice > 0 {
				fmt.Fprintf(&list, "   Potential Savings: %s\n", money(p.Savings()))
			}
		}
		fmt.Fprintf(&list, "\n   View Details: %s%s\n\n", propertyURL, p.CaseNumber)
	}

	return "Hi " + clientName + ",\n\n" +
		customMessage + "\n\n" +
		"Here are my top recommendations:\n\n" +
		list.String() +
		"These HUD properties offer significant savings compared to traditional market listings. " +
		"Each one has been carefully selected based on your preferences and budget.\n\n" +
		"Would you like to schedule showings for any of these properties? I'm happy to answer any questions you may have.\n\n" +
		"Let me know which ones interest you most, and we can discuss next steps!\n\n" +
		"Best regards,\nUSA HUD Homes\n\n" +
		"P.S. HUD properties move quickly! Let me know if you'd like to submit an offer on any of these."
}

// ShareSMSBody is a one-property teaser or a multi-property summary.
func ShareSMSBody(clientName string, props []models.Property) string {
	if len(props) == 1 {
		p := props[0]
		return fmt.Sprintf("Hi %s! Found a great HUD home for you: %s, %s - %dBR/%sBA - %s. View: usahudhomes.com/properties/%s Interested?",
			clientName, p.Address, p.City, p.Bedrooms, baths(p.Bathrooms), money(p.ListPrice), p.CaseNumber)
	}
	return fmt.Sprintf("Hi %s! I found %d HUD homes matching your criteria. Check your email for details, or reply to schedule showings. They won't last long!",
		clientName, len(props))
}

// DescribeProperty builds a template listing headline, description and highlights.
func DescribeProperty(p models.Property) models.PropertyDescription {
	highlights := []string{}
	if savings := p.Savings(); savings > 0 {
		highlights = append(highlights, fmt.Sprintf("Save %s below market value!", money(savings)))
	}
	if p.Bedrooms >= 4 {
		highlights = append(highlights, "Spacious family home")
	}
	if p.Sqft > 2000 {
		highlights = append(highlights, "Generous living space")
	}

	kind := p.PropertyType
	if kind == "" {
		kind = "home"
	}
	space := "ample space"
	if p.Sqft > 0 {
		space = humanize.Comma(int64(p.Sqft)) + " square feet"
	}

	desc := fmt.Sprintf("This %s features %d bedrooms and %s bathrooms with %s.", kind, p.Bedrooms, baths(p.Bathrooms), space)
	if len(highlights) > 0 {
		desc += " " + strings.Join(highlights, " ")
	}
	desc += fmt.Sprintf(" Located in %s, %s. Perfect opportunity for first-time buyers or investors!", p.City, p.State)

	return models.PropertyDescription{
		Headline:    fmt.Sprintf("Beautiful %d-Bedroom HUD Home in %s", p.Bedrooms, p.City),
		Description: desc,
		Highlights:  highlights,
	}
}
