package detect

import (
	"time"

	"mirage/core"
)

// Static technique severity table. Unknown techniques default to medium.
var techniqueSeverities = map[string]core.Severity{
	"T1003": core.SeverityCritical, // credential dumping
	"T1555": core.SeverityCritical,
	"T1486": core.SeverityCritical, // data encrypted for impact
	"T1490": core.SeverityCritical,
	"T1566": core.SeverityHigh, // phishing
	"T1190": core.SeverityHigh,
	"T1195": core.SeverityHigh,
	"T1068": core.SeverityHigh,
	"T1041": core.SeverityHigh,
	"T1567": core.SeverityHigh,
	"T1210": core.SeverityHigh,
	"T1110": core.SeverityMedium,
	"T1021": core.SeverityMedium,
	"T1070": core.SeverityMedium,
	"T1562": core.SeverityMedium,
	"T1018": core.SeverityLow, // discovery
	"T1083": core.SeverityLow,
	"T1046": core.SeverityLow,
	"T1592": core.SeverityLow,
	"T1595": core.SeverityLow,
}

// SeverityFor returns the alert severity for a technique
func SeverityFor(technique string) core.Severity {
	if sev, ok := techniqueSeverities[technique]; ok {
		return sev
	}
	return core.SeverityMedium
}

var techniqueShortNames = map[string]string{
	"T1003": "Credential Dumping",
	"T1110": "Brute Force",
	"T1555": "Password Store Access",
	"T1078": "Valid Accounts",
	"T1059": "Command Interpreter",
	"T1204": "User Execution",
	"T1053": "Scheduled Task",
	"T1547": "Autostart Persistence",
	"T1543": "System Service",
	"T1068": "Privilege Escalation Exploit",
	"T1486": "Data Encryption",
	"T1490": "Recovery Inhibition",
	"T1562": "Defense Impairment",
	"T1070": "Indicator Removal",
	"T1021": "Remote Services",
	"T1210": "Remote Exploitation",
	"T1046": "Service Scanning",
	"T1018": "System Discovery",
	"T1083": "File Discovery",
	"T1071": "Application Protocol C2",
	"T1573": "Encrypted Channel",
	"T1041": "Exfiltration Over C2",
	"T1567": "Web Service Exfiltration",
	"T1052": "Physical Exfiltration",
	"T1005": "Local Data Collection",
	"T1039": "Network Share Collection",
	"T1560": "Data Archiving",
	"T1566": "Phishing",
	"T1190": "Public Application Exploit",
	"T1195": "Supply Chain Compromise",
	"T1592": "Victim Host Research",
	"T1595": "Active Scanning",
}

func techniqueShortName(technique string) string {
	if name, ok := techniqueShortNames[technique]; ok {
		return name
	}
	return technique
}

func minuteDuration(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
