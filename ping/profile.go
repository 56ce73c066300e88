package ping

// Profile selects the active allowed_infos / allowed_dimensions set (spec.md
// §3 "Info'", §4.1). The job driver picks one profile per invocation
// (BHR or ANR) and passes it through explicitly -- never a package global --
// per Design Note "replace with a process-wide configuration struct set
// once at task startup".
type Profile struct {
	Name               string
	AllowedInfos       []string
	AllowedDimensions  []string
}

var (
	// ANRProfile mirrors mapreduce_common.allowed_infos_anr /
	// allowed_dimensions_anr.
	ANRProfile = Profile{
		Name: "anr",
		AllowedInfos: []string{
			"appUpdateChannel", "appVersion", "appBuildID", "locale",
			"device", "cpucount", "memsize", "os", "arch", "uptime",
		},
		AllowedDimensions: []string{
			"appName", "appVersion", "arch", "cpucount", "memsize", "os",
			"submission_date",
		},
	}

	// BHRProfile mirrors mapreduce_common.allowed_infos_bhr /
	// allowed_dimensions_bhr.
	BHRProfile = Profile{
		Name: "bhr",
		AllowedInfos: []string{
			"appName", "appUpdateChannel", "appVersion", "appBuildID",
			"locale", "cpucount", "memsize", "os", "arch", "platform",
			"adapterVendorID", "uptime",
		},
		AllowedDimensions: []string{
			"appName", "appVersion", "arch", "cpucount", "memsize",
			"platform", "submission_date",
		},
	}
)
