package config

import (
	"fmt"
	"os"
	"path/filepath"

	"crowdfund-client-go/internal/models"

	"gopkg.in/yaml.v2"
)

// DefaultNetwork is used when IOTA_NETWORK is unset
const DefaultNetwork = "testnet"

type networksFile struct {
	Networks map[string]models.NetworkConfig `yaml:"networks"`
}

// BuiltinNetworks returns the deployments known without a networks file
func BuiltinNetworks() map[string]models.NetworkConfig {
	return map[string]models.NetworkConfig{
		"testnet": {
			RpcUrl:      "https://api.testnet.iota.cafe",
			ExplorerUrl: "https://explorer.iota.org/testnet",
			PackageId:   "0xf9706e190abe57f0b1b5afc407d95111a32e2ffbcff7830db792c3691270235c",
			FundId:      "0x3df62b6a415e4668ef5b35a71e78c4c75a08a1cc40f6da4453a56a60e3f32a71",
			AdminCapId:  "0xab4b00500fdabae88ff66e9f33f91b3ece7368918372d34951ee8bdd9f01942c",
		},
	}
}

// LoadNetworks reads a YAML table of named deployments
func LoadNetworks(networksFilePath string) (map[string]models.NetworkConfig, error) {
	var path string
	if filepath.IsAbs(networksFilePath) {
		path = networksFilePath
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, networksFilePath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", networksFilePath, err)
	}

	var parsed networksFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", networksFilePath, err)
	}
	if len(parsed.Networks) == 0 {
		return nil, fmt.Errorf("%s defines no networks", networksFilePath)
	}

	for name, network := range parsed.Networks {
		if network.RpcUrl == "" {
			return nil, fmt.Errorf("network %q missing rpc_url", name)
		}
	}

	return parsed.Networks, nil
}

func validateNetwork(network models.NetworkConfig) error {
	if network.RpcUrl == "" {
		return fmt.Errorf("network %q has no rpc url: set IOTA_RPC_URL or NETWORKS_FILE", network.Name)
	}
	if network.PackageId == "" {
		return fmt.Errorf("network %q has no package id: set IOTA_PACKAGE_ID", network.Name)
	}
	if network.FundId == "" {
		return fmt.Errorf("network %q has no fund id: set IOTA_FUND_ID", network.Name)
	}
	return nil
}
