package domain

// Category classifies how a company relates to the AI industry.
type Category string

const (
	CategoryChip           Category = "ai_chip"           // designs/manufactures AI processors
	CategorySoftware       Category = "ai_software"       // builds AI applications, platforms, LLMs
	CategoryCloud          Category = "ai_cloud"          // provides AI training/inference infrastructure
	CategoryInfrastructure Category = "ai_infrastructure" // data centers, networking, storage for AI
	CategoryBeneficiary    Category = "ai_beneficiary"    // benefits from AI adoption
	CategoryNone           Category = "none"              // no AI relevance detected
)

// Categories lists all non-none categories in a fixed order.
// The weekly round-robin scan depends on this order being stable.
func Categories() []Category {
	return []Category{
		CategoryChip,
		CategorySoftware,
		CategoryCloud,
		CategoryInfrastructure,
		CategoryBeneficiary,
	}
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryChip, CategorySoftware, CategoryCloud, CategoryInfrastructure, CategoryBeneficiary, CategoryNone:
		return true
	}
	return false
}
