package config

import (
	"os"
	"strconv"
)

// Config carries all runtime settings. Values come from the environment,
// optionally seeded from a .env file by the caller, with the DAV/DMA
// report texts as defaults.
type Config struct {
	// Inputs
	ImagesDir string
	ZonesPath string

	// Cover and page-header text
	HeaderLine1 string
	HeaderLine2 string
	ReportTitle string
	FooterLine1 string
	FooterLine2 string
	FooterLine3 string

	Contract       string
	Description    string
	FiscalName     string
	ContractedName string
	Location       string

	// Imaging
	JPEGQuality    int
	ThumbnailMax   int
	ThumbnailCache int
}

func Load() *Config {
	return &Config{
		ImagesDir: getEnv("IMAGES_DIR", "."),
		ZonesPath: getEnv("ZONES_PATH", "zonas.geojson"),

		HeaderLine1: getEnv("REPORT_HEADER_1",
			"DAV - DIRETORIA DE ÁREAS VERDES / DMA - DIVISÃO DE MEIO AMBIENTE / PREFEITURA UNIVERSITÁRIA"),
		HeaderLine2: getEnv("REPORT_HEADER_2", "UNICAMP - UNIVERSIDADE ESTADUAL DE CAMPINAS"),
		ReportTitle: getEnv("REPORT_TITLE", "RELATÓRIO DE VISTORIA - SERVIÇOS PROVAC"),
		FooterLine1: getEnv("REPORT_FOOTER_1", "Rua 5 de Junho, 251 - Cidade Universitária Zeferino Vaz - Campinas - SP"),
		FooterLine2: getEnv("REPORT_FOOTER_2", "CEP: 13083-877 - Tel: (19) 3521-7010 - Fax: (19) 3521-7835"),
		FooterLine3: getEnv("REPORT_FOOTER_3", "masecret@unicamp.br"),

		Contract:       getEnv("CONTRACT_NUMBER", ""),
		Description:    getEnv("REPORT_DESCRIPTION", "Vistoria de campo realizada pelos técnicos da DAV/DMA,"),
		FiscalName:     getEnv("FISCAL_NAME", ""),
		ContractedName: getEnv("CONTRACTED_NAME", "Laércio P. Oliveira"),
		Location:       getEnv("REPORT_LOCATION", "Cidade Universitária Zeferino Vaz, Campinas-SP"),

		JPEGQuality:    getEnvInt("JPEG_QUALITY", 85),
		ThumbnailMax:   getEnvInt("THUMBNAIL_MAX", 600),
		ThumbnailCache: getEnvInt("THUMBNAIL_CACHE", 256),
	}
}

// FooterLines returns the footer address lines in page order.
func (c *Config) FooterLines() []string {
	return []string{c.FooterLine1, c.FooterLine2, c.FooterLine3}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
