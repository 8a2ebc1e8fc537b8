package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// AppConfig is the application configuration, loaded from config.toml next
// to the executable.
type AppConfig struct {
	Data     DataConfig     `toml:"data"`
	Template TemplateConfig `toml:"template"`
}

// DataConfig names the source and output folders.
type DataConfig struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
}

// TemplateConfig is the contract between this program and the daily order
// form template. Cell addresses and column letters must match the template
// bit-for-bit; changing the form means changing these values.
type TemplateConfig struct {
	OrderDateCell  string `toml:"order_date_cell"`
	NewClientsCell string `toml:"new_clients_cell"`
	VouchersCell   string `toml:"vouchers_cell"`
	DataStartRow   int    `toml:"data_start_row"`

	// SkipThreshold is the number of consecutive rows with no key-column
	// data tolerated before extraction stops. One or two blank rows
	// mid-form are common; ten is generous.
	SkipThreshold int `toml:"skip_threshold"`

	KeyColumn          string `toml:"key_column"`
	AgencyNameColumn   string `toml:"agency_name_column"`
	AgencyNumberColumn string `toml:"agency_number_column"`
	AdultsColumn       string `toml:"adults_column"`
	ChildrenColumn     string `toml:"children_column"`
	VoucherColumn      string `toml:"voucher_column"`
	NewClientColumn    string `toml:"new_client_column"`
	LocationColumn     string `toml:"location_column"`
}

// DefaultConfig matches the daily order form template in use since 2024.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Data: DataConfig{
			DataDir:   "FoodPantryData",
			OutputDir: "FPReport",
		},
		Template: TemplateConfig{
			OrderDateCell:      "B12",
			NewClientsCell:     "C10",
			VouchersCell:       "E10",
			DataStartRow:       15,
			SkipThreshold:      10,
			KeyColumn:          "A",
			AgencyNameColumn:   "B",
			AgencyNumberColumn: "F",
			AdultsColumn:       "L",
			ChildrenColumn:     "M",
			VoucherColumn:      "N",
			NewClientColumn:    "O",
			LocationColumn:     "P",
		},
	}
}

// GetExeDir returns the directory holding the running executable.
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// LoadConfig reads config.toml from the executable's directory. A missing
// file is not an error; defaults apply.
func LoadConfig() (*AppConfig, error) {
	config := DefaultConfig()

	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// SaveConfig writes the configuration back to config.toml.
func SaveConfig(config *AppConfig) error {
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}

	configPath := filepath.Join(exeDir, "config.toml")

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
