package model

// DistributionCenters is the fixed catalogue of company codes the RealWorld
// system recognizes. It is used only to validate input before a session is
// opened; the remote system is the source of truth for everything else.
var DistributionCenters = map[string]string{
	"00": "NASSAU CANDY DISTRIBUTORS INC",
	"01": "NASSAU CANDY SOUTH",
	"02": "NASSAU GOURMET FOODS",
	"03": "STELLAR TRACKING COMPANY",
	"04": "NASSAU CANDY MIDWEST",
	"05": "NASSAU CANDY WEST-LA",
	"06": "NC CHOCOLATE MANUFACTURING LLC",
	"07": "NASSAU CANDY SOUTHWEST",
	"08": "NASSAU CANDY WEST-SSF",
	"09": "THE CHOCOLATE INN",
	"10": "NASSAU CANDY WEST-COPY",
}

// ValidDistributionCenter reports whether code is in the fixed catalogue.
func ValidDistributionCenter(code string) bool {
	_, ok := DistributionCenters[code]
	return ok
}
