package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/aimux",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DefaultProvider: "ollama",
		Providers: []ProviderConfig{
			{
				Name:           "ollama",
				Transport:      TransportHTTP,
				Endpoint:       "http://localhost:11434",
				APIFormat:      APIFormatOllama,
				Model:          "llama3.1:latest",
				MaxTokens:      2048,
				Temperature:    0.7,
				TimeoutSeconds: 60,
			},
			{
				Name:           "gemini",
				Transport:      TransportSubprocess,
				Command:        "gemini",
				MaxTokens:      2048,
				TimeoutSeconds: 60,
			},
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# aimux System Configuration
# Location: ~/.config/aimux/settings.toml
# This file uses TOML format: https://toml.io

# Directory where provider config and the session journal are stored
data_directory = "~/.local/share/aimux"
`
}

func GenerateUserConfigTemplate() string {
	return `# aimux Provider Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io
#
# Each [[providers]] block describes one AI backend. Two transports are
# supported:
#   subprocess - a local CLI tool spoken to over stdin/stdout, one line per
#                prompt and one line per reply
#   http       - a chat-completions style API (api_format: openai, anthropic
#                or ollama; openai also covers OpenAI-compatible servers)

# Provider used by "start" when no name is given
default_provider = "ollama"

[[providers]]
name = "ollama"
transport = "http"
endpoint = "http://localhost:11434"
api_format = "ollama"
model = "llama3.1:latest"
max_tokens = 2048
temperature = 0.7
timeout_seconds = 60

[[providers]]
name = "gemini"
transport = "subprocess"
command = "gemini"
max_tokens = 2048
timeout_seconds = 60
# history_turns = 4   # replay the last N turns in each prompt; 0 = the CLI
                      # keeps its own conversational state

# [[providers]]
# name = "openai"
# transport = "http"
# endpoint = "https://api.openai.com/v1"
# api_format = "openai"
# api_key_env = "OPENAI_API_KEY"
# model = "gpt-4o-mini"
# max_tokens = 2048
# temperature = 0.7
# timeout_seconds = 60

# [[providers]]
# name = "anthropic"
# transport = "http"
# endpoint = "https://api.anthropic.com"
# api_format = "anthropic"
# api_key_env = "ANTHROPIC_API_KEY"
# model = "claude-sonnet-4-5-20250929"
# max_tokens = 4096
# timeout_seconds = 60
`
}
