package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatInfo(w io.Writer, result *InfoResult) error
	FormatDelete(w io.Writer, results []DeleteResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload prints one line per file. In quiet mode only the new ids are printed.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.LocalPath, r.Err)
			continue
		}
		if f.Quiet {
			_, _ = fmt.Fprintln(w, r.Fragment.ID)
			continue
		}
		_, _ = fmt.Fprintf(w, "Created: %s -> %s (%s, %s)\n", r.LocalPath, r.Fragment.ID, r.Fragment.Type, formatSize(r.Fragment.Size))
		if r.Location != "" {
			_, _ = fmt.Fprintf(w, "  Location: %s\n", r.Location)
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.ID, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.ID, result.LocalPath, formatSize(result.Size))
	}
	_, _ = fmt.Fprintf(w, "  Content-Type: %s\n", result.ContentType)
	return nil
}

// FormatInfo formats a fragment's metadata as human-readable text.
func (f *HumanFormatter) FormatInfo(w io.Writer, result *InfoResult) error {
	fr := result.Fragment
	_, _ = fmt.Fprintf(w, "ID:      %s\n", fr.ID)
	_, _ = fmt.Fprintf(w, "Type:    %s\n", fr.Type)
	_, _ = fmt.Fprintf(w, "Size:    %s\n", formatSize(fr.Size))
	_, _ = fmt.Fprintf(w, "Created: %s\n", fr.Created.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Updated: %s\n", fr.Updated.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Formats: %s\n", strings.Join(result.Formats, ", "))
	return nil
}

// FormatDelete formats delete results as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.ID, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Deleted: %s\n", r.ID)
		}
	}
	return nil
}

// FormatList prints bare ids, or a table when the listing was expanded.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	if len(result.IDs) == 0 {
		if !f.Quiet {
			_, _ = fmt.Fprintln(w, "No fragments found")
		}
		return nil
	}

	if len(result.Fragments) == 0 || f.Quiet {
		for _, id := range result.IDs {
			_, _ = fmt.Fprintln(w, id)
		}
		return nil
	}

	maxTypeLen := 4 // "TYPE"
	for i := range result.Fragments {
		maxTypeLen = max(maxTypeLen, len(result.Fragments[i].Type))
	}
	maxTypeLen = min(maxTypeLen, 40)

	_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %s\n", "ID", maxTypeLen, "TYPE", "SIZE", "UPDATED")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s\n", strings.Repeat("-", 36), strings.Repeat("-", maxTypeLen), strings.Repeat("-", 10), strings.Repeat("-", 19))

	for i := range result.Fragments {
		fr := &result.Fragments[i]
		typ := fr.Type
		if len(typ) > maxTypeLen {
			typ = typ[:maxTypeLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %s\n",
			fr.ID,
			maxTypeLen,
			typ,
			formatSize(fr.Size),
			fr.Updated.Format("2006-01-02 15:04:05"),
		)
	}

	_, _ = fmt.Fprintf(w, "\n%d fragment(s) (%s total)\n", len(result.Fragments), formatSize(result.TotalSize()))
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	type jsonResult struct {
		LocalPath string `json:"local_path"`
		ID        string `json:"id,omitempty"`
		Type      string `json:"type,omitempty"`
		Size      int64  `json:"size,omitempty"`
		Location  string `json:"location,omitempty"`
		Created   string `json:"created,omitempty"`
		Error     string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{LocalPath: r.LocalPath}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		} else {
			jr.ID = r.Fragment.ID
			jr.Type = r.Fragment.Type
			jr.Size = r.Fragment.Size
			jr.Location = r.Location
			jr.Created = r.Fragment.Created.Format(time.RFC3339)
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatInfo formats a fragment's metadata as JSON.
func (f *JSONFormatter) FormatInfo(w io.Writer, result *InfoResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats delete results as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, results []DeleteResult) error {
	type jsonResult struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{ID: r.ID, Deleted: r.Deleted}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	maxNameLen := 4     // "NAME"
	maxEndpointLen := 8 // "ENDPOINT"
	for i := range profiles {
		maxNameLen = max(maxNameLen, len(profiles[i].Name))
		maxEndpointLen = max(maxEndpointLen, len(profiles[i].Endpoint))
	}
	maxNameLen = min(maxNameLen, 20)
	maxEndpointLen = min(maxEndpointLen, 50)

	_, _ = fmt.Fprintf(w, "  %-*s  %-*s  %-6s  %s\n", maxNameLen, "NAME", maxEndpointLen, "ENDPOINT", "AUTH", "IDENTITY")
	_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n", strings.Repeat("-", maxNameLen), strings.Repeat("-", maxEndpointLen), strings.Repeat("-", 6), strings.Repeat("-", 20))

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}

		name := p.Name
		if len(name) > maxNameLen {
			name = name[:maxNameLen-3] + "..."
		}

		endpoint := p.Endpoint
		if len(endpoint) > maxEndpointLen {
			endpoint = endpoint[:maxEndpointLen-3] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s %-*s  %-*s  %-6s  %s\n", marker, maxNameLen, name, maxEndpointLen, endpoint, profileAuth(p), profileIdentity(p, showSecrets))
	}

	return nil
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	_, _ = fmt.Fprintf(w, "Name:       %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint:   %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Auth:       %s\n", profileAuth(&profile))

	switch profileAuth(&profile) {
	case AuthBearer:
		_, _ = fmt.Fprintf(w, "Token:      %s\n", maskSecret(profile.Token, showSecrets))
	case AuthSigV4:
		_, _ = fmt.Fprintf(w, "Access Key: %s\n", maskSecret(profile.AccessKey, showSecrets))
		_, _ = fmt.Fprintf(w, "Secret Key: %s\n", maskSecret(profile.SecretKey, showSecrets))
		_, _ = fmt.Fprintf(w, "Region:     %s\n", profile.Region)
	default:
		_, _ = fmt.Fprintf(w, "Username:   %s\n", profile.Username)
		_, _ = fmt.Fprintf(w, "Password:   %s\n", maskSecret(profile.Password, showSecrets))
	}
	return nil
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string, showSecrets bool) error {
	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		output.Profiles[i] = newJSONProfile(profiles[i], profiles[i].Name == defaultName, showSecrets)
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault, showSecrets bool) error {
	return writeJSON(w, newJSONProfile(profile, isDefault, showSecrets))
}

type jsonProfile struct {
	Name      string `json:"name"`
	Endpoint  string `json:"endpoint"`
	Auth      string `json:"auth"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Token     string `json:"token,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Region    string `json:"region,omitempty"`
	Default   bool   `json:"default"`
}

func newJSONProfile(p Profile, isDefault, showSecrets bool) jsonProfile {
	jp := jsonProfile{
		Name:     p.Name,
		Endpoint: p.Endpoint,
		Auth:     profileAuth(&p),
		Username: p.Username,
		Region:   p.Region,
		Default:  isDefault,
	}
	if p.Password != "" {
		jp.Password = maskSecret(p.Password, showSecrets)
	}
	if p.Token != "" {
		jp.Token = maskSecret(p.Token, showSecrets)
	}
	if p.AccessKey != "" {
		jp.AccessKey = maskSecret(p.AccessKey, showSecrets)
	}
	if p.SecretKey != "" {
		jp.SecretKey = maskSecret(p.SecretKey, showSecrets)
	}
	return jp
}

func profileAuth(p *Profile) string {
	return ConfigFromProfile(p).WithDefaults().Auth
}

func profileIdentity(p *Profile, showSecrets bool) string {
	switch profileAuth(p) {
	case AuthBearer:
		return maskSecret(p.Token, showSecrets)
	case AuthSigV4:
		return maskSecret(p.AccessKey, showSecrets)
	default:
		if p.Username == "" {
			return "(not set)"
		}
		return p.Username
	}
}

// maskSecret masks a secret string, showing only first 4 and last 4 characters.
// If showSecrets is true, returns the original value.
// If the secret is too short, returns all asterisks.
func maskSecret(secret string, showSecrets bool) string {
	if showSecrets {
		return secret
	}
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
