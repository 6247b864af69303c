package retrieval

// ClimateDomains is the allow-list injected into every web search.
var ClimateDomains = []string{
	"nature.com", "science.org", "sciencedirect.com", "pnas.org", "ipcc.ch",
	"nasa.gov/climate", "climate.gov", "carbonbrief.org", "unfccc.int",
	"climatecentral.org", "realclimate.org", "skepticalscience.com",
	"climatefeedback.org", "grist.org", "insideclimatenews.org",
	"yaleclimateconnections.org", "nytimes.com/section/climate",
	"theguardian.com/environment/climate-crisis", "bbc.com/future/tags/climate_change",
	"climatechangenews.com", "sciencebasedtargets.org", "wri.org",
	"worldbank.org/en/topic/climatechange", "epa.gov/climate-change",
	"globalchange.gov", "climate.mit.edu", "journals.ametsoc.org",
	"scienceadvances.org", "iopscience.iop.org/journal/1748-9326",
	"c2es.org", "climateworks.org", "climatepolicy.org",
	"climatejusticealliance.org", "350.org", "climaterealityproject.org",
	"noaa.gov/climate", "cdp.net", "ceres.org", "climateactiontracker.org",
	"climatenexus.org",
}
