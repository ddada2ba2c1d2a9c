package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/ams-compose/ams-compose/internal/purl"
	"github.com/ams-compose/ams-compose/internal/sbom"
	"github.com/ams-compose/ams-compose/internal/types"
	"github.com/ams-compose/ams-compose/internal/version"
)

// SBOMFormat selects the output encoding for SBOMGenerator.Generate.
type SBOMFormat string

const (
	SBOMFormatCycloneDX SBOMFormat = "cyclonedx"
	SBOMFormatSPDX      SBOMFormat = "spdx"
)

// SBOMOptions configures SBOM generation; all fields are optional.
type SBOMOptions struct {
	ProjectName   string
	SPDXNamespace string
}

// SBOMGenerator builds a software bill of materials from the lock file,
// supplementing the manifest-driven install pipeline with the kind of
// provenance report consumers of vendored code are expected to ask for.
type SBOMGenerator struct {
	options SBOMOptions
}

// NewSBOMGenerator creates a generator with the given project name.
func NewSBOMGenerator(projectName string) *SBOMGenerator {
	return &SBOMGenerator{options: SBOMOptions{ProjectName: sbom.ValidateProjectName(projectName)}}
}

// Generate renders lf as an SBOM in the requested format.
func (g *SBOMGenerator) Generate(lf types.LockFile, format SBOMFormat) ([]byte, error) {
	switch format {
	case SBOMFormatCycloneDX:
		return g.generateCycloneDX(lf)
	case SBOMFormatSPDX:
		return g.generateSPDX(lf)
	default:
		return nil, fmt.Errorf("unknown SBOM format: %s", format)
	}
}

func (g *SBOMGenerator) generateCycloneDX(lf types.LockFile) ([]byte, error) {
	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.New().String()
	bom.Version = 1

	bom.Metadata = &cdx.Metadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{
				{
					Type:    cdx.ComponentTypeApplication,
					Name:    "ams-compose",
					Version: version.GetVersion(),
					ExternalReferences: &[]cdx.ExternalReference{
						{Type: cdx.ERTypeWebsite, URL: "https://github.com/ams-compose/ams-compose"},
					},
				},
			},
		},
		Component: &cdx.Component{
			Type:    cdx.ComponentTypeApplication,
			Name:    g.options.ProjectName,
			Version: "local",
		},
	}

	names := sortedLibraryNames(lf)
	components := make([]cdx.Component, 0, len(names))
	for _, name := range names {
		components = append(components, g.buildComponent(name, lf.Libraries[name]))
	}
	bom.Components = &components

	var buf strings.Builder
	encoder := cdx.NewBOMEncoder(&buf, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return nil, fmt.Errorf("encode CycloneDX SBOM: %w", err)
	}
	return []byte(buf.String()), nil
}

func (g *SBOMGenerator) buildComponent(name string, entry types.LockEntry) cdx.Component {
	identity := sbom.VendorIdentity{Name: name, Ref: entry.Ref, CommitHash: entry.Commit}

	componentVersion := entry.Commit
	if entry.Ref != "" {
		componentVersion = entry.Ref
	}

	purlObj := purl.FromGitURLWithFallback(entry.Repo, entry.Commit, name)
	purlStr := ""
	if purlObj != nil {
		purlStr = purlObj.String()
	}

	component := cdx.Component{
		Type:       cdx.ComponentTypeLibrary,
		BOMRef:     sbom.GenerateBOMRef(identity),
		Name:       name,
		Version:    componentVersion,
		PackageURL: purlStr,
	}

	if entry.License != nil && *entry.License != "" && *entry.License != UnknownLicense {
		component.Licenses = &cdx.Licenses{{License: &cdx.License{ID: *entry.License}}}
	}

	if entry.Checksum != "" {
		component.Hashes = &[]cdx.Hash{{Algorithm: cdx.HashAlgoSHA256, Value: entry.Checksum}}
	}

	if entry.Repo != "" {
		component.ExternalReferences = &[]cdx.ExternalReference{{Type: cdx.ERTypeVCS, URL: entry.Repo}}
	}

	if supplier := sbom.ExtractSupplier(entry.Repo); supplier != nil {
		component.Supplier = &cdx.OrganizationalEntity{Name: supplier.Name, URL: &[]string{supplier.URL}}
	}

	properties := []cdx.Property{
		{Name: "ams-compose:commit", Value: entry.Commit},
		{Name: "ams-compose:ref", Value: entry.Ref},
		{Name: "ams-compose:source_path", Value: entry.SourcePath},
	}
	if entry.InstalledAt != "" {
		properties = append(properties, cdx.Property{Name: "ams-compose:installed_at", Value: entry.InstalledAt})
	}
	component.Properties = &properties

	return component
}

// generateSPDX renders a minimal SPDX 2.3 JSON document. Field names follow
// the SPDX 2.3 JSON schema directly rather than round-tripping through
// tools-golang's in-memory Document type, since this generator only ever
// writes (never parses) SPDX.
func (g *SBOMGenerator) generateSPDX(lf types.LockFile) ([]byte, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	namespace := sbom.BuildSPDXNamespace(g.options.SPDXNamespace, g.options.ProjectName, uuid.New().String())

	names := sortedLibraryNames(lf)
	packages := make([]spdxPackageJSON, 0, len(names))
	relationships := make([]spdxRelationshipJSON, 0, len(names))

	docID := sbom.FormatSPDXRef(sbom.SPDXDocumentID)

	for _, name := range names {
		entry := lf.Libraries[name]
		identity := sbom.VendorIdentity{Name: name, Ref: entry.Ref, CommitHash: entry.Commit}
		spdxID := sbom.FormatSPDXRef(sbom.GenerateSPDXID(identity))

		downloadLocation := "NOASSERTION"
		if entry.Repo != "" {
			downloadLocation = entry.Repo
		}

		licenseID := "NOASSERTION"
		if entry.License != nil && *entry.License != "" && *entry.License != UnknownLicense {
			licenseID = *entry.License
		}

		pkg := spdxPackageJSON{
			SPDXID:           spdxID,
			Name:             name,
			VersionInfo:      entry.Commit,
			DownloadLocation: downloadLocation,
			LicenseDeclared:  licenseID,
			LicenseConcluded: licenseID,
			CopyrightText:    "NOASSERTION",
			FilesAnalyzed:    false,
			Comment:          sbom.MetadataComment(entry.Ref, entry.Commit, entry.InstalledAt, ""),
		}
		if entry.Checksum != "" {
			pkg.Checksums = []spdxChecksumJSON{{Algorithm: "SHA256", ChecksumValue: entry.Checksum}}
		}
		if purlObj := purl.FromGitURLWithFallback(entry.Repo, entry.Commit, name); purlObj != nil {
			pkg.ExternalRefs = []spdxExternalRefJSON{{
				ReferenceCategory: "PACKAGE-MANAGER",
				ReferenceType:     "purl",
				ReferenceLocator:  purlObj.String(),
			}}
		}
		if supplier := sbom.ExtractSupplier(entry.Repo); supplier != nil {
			pkg.Supplier = "Organization: " + supplier.Name
		}

		packages = append(packages, pkg)
		relationships = append(relationships, spdxRelationshipJSON{
			SPDXElementID:      docID,
			RelationshipType:   "DESCRIBES",
			RelatedSPDXElement: spdxID,
		})
	}

	doc := spdxJSON{
		SPDXVersion:       "SPDX-2.3",
		DataLicense:       "CC0-1.0",
		SPDXID:            docID,
		Name:              g.options.ProjectName + "-vendored-sbom",
		DocumentNamespace: namespace,
		CreationInfo: spdxCreationInfoJSON{
			Created:  timestamp,
			Creators: []string{"Tool: ams-compose-" + version.GetVersion()},
		},
		Packages:      packages,
		Relationships: relationships,
	}

	return json.MarshalIndent(doc, "", "  ")
}

func sortedLibraryNames(lf types.LockFile) []string {
	names := make([]string, 0, len(lf.Libraries))
	for name := range lf.Libraries {
		names = append(names, name)
	}
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}

type spdxJSON struct {
	SPDXVersion       string                 `json:"spdxVersion"`
	DataLicense       string                 `json:"dataLicense"`
	SPDXID            string                 `json:"SPDXID"`
	Name              string                 `json:"name"`
	DocumentNamespace string                 `json:"documentNamespace"`
	CreationInfo      spdxCreationInfoJSON   `json:"creationInfo"`
	Packages          []spdxPackageJSON      `json:"packages"`
	Relationships     []spdxRelationshipJSON `json:"relationships"`
}

type spdxCreationInfoJSON struct {
	Created  string   `json:"created"`
	Creators []string `json:"creators"`
}

type spdxPackageJSON struct {
	SPDXID           string                `json:"SPDXID"`
	Name             string                `json:"name"`
	VersionInfo      string                `json:"versionInfo"`
	DownloadLocation string                `json:"downloadLocation"`
	Supplier         string                `json:"supplier,omitempty"`
	LicenseDeclared  string                `json:"licenseDeclared"`
	LicenseConcluded string                `json:"licenseConcluded"`
	CopyrightText    string                `json:"copyrightText"`
	FilesAnalyzed    bool                  `json:"filesAnalyzed"`
	Checksums        []spdxChecksumJSON    `json:"checksums,omitempty"`
	ExternalRefs     []spdxExternalRefJSON `json:"externalRefs,omitempty"`
	Comment          string                `json:"comment,omitempty"`
}

type spdxChecksumJSON struct {
	Algorithm     string `json:"algorithm"`
	ChecksumValue string `json:"checksumValue"`
}

type spdxExternalRefJSON struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

type spdxRelationshipJSON struct {
	SPDXElementID      string `json:"spdxElementId"`
	RelationshipType   string `json:"relationshipType"`
	RelatedSPDXElement string `json:"relatedSpdxElement"`
}
