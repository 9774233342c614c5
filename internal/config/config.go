package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
)

// 分类器后端名称。
const (
	BackendHuggingFace = "huggingface"
	BackendArk         = "ark"
	BackendOpenAI      = "openai"
	BackendLexicon     = "lexicon"
)

// DefaultModel 是默认的预训练情绪分类模型。
const DefaultModel = "j-hartmann/emotion-english-distilroberta-base"

// Config 聚合整个服务的配置项。
type Config struct {
	Server       ServerConfig
	Page         PageConfig
	Classifier   ClassifierConfig
	Conversation ConversationConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	classifier, err := loadClassifierConfig()
	if err != nil {
		return nil, err
	}

	conversation, err := loadConversationConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:       server,
		Page:         loadPageConfig(),
		Classifier:   classifier,
		Conversation: conversation,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// PageConfig 描述页面元信息，启动后不可变。
type PageConfig struct {
	Title            string `json:"title"`
	Icon             string `json:"icon"`
	Heading          string `json:"heading"`
	Subtitle         string `json:"subtitle"`
	Caption          string `json:"caption"`
	Disclaimer       string `json:"disclaimer"`
	GoalPrompt       string `json:"goalPrompt"`
	ChatCaption      string `json:"chatCaption"`
	InputPlaceholder string `json:"inputPlaceholder"`
}

// Disclaimer 在启动时展示一次。
const Disclaimer = "MindEase is not a replacement for professional mental health care."

func loadPageConfig() PageConfig {
	return PageConfig{
		Title:            getEnvOrDefault("PAGE_TITLE", "MindEase – Mental Wellness"),
		Icon:             getEnvOrDefault("PAGE_ICON", "🌱"),
		Heading:          "MindEase",
		Subtitle:         "Your AI companion for emotional support",
		Caption:          "Private • Supportive • Non-judgmental",
		Disclaimer:       Disclaimer,
		GoalPrompt:       "What is one thing you’d like to feel better about today?",
		ChatCaption:      "This is a safe, non-judgmental space. Take your time.",
		InputPlaceholder: "Type your message here...",
	}
}

// ClassifierConfig 描述情绪分类器相关配置。
type ClassifierConfig struct {
	Backend string
	Model   string
	Labels  []emotion.Label
	Timeout time.Duration
	Warmup  bool
	HF      HuggingFaceConfig
	Ark     ArkConfig
	OpenAI  OpenAIConfig
}

// HuggingFaceConfig 描述 Hugging Face 推理接口配置。
type HuggingFaceConfig struct {
	APIToken string
	BaseURL  string
	TopK     int
}

// ArkConfig 描述方舟大模型配置。
type ArkConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
}

// OpenAIConfig 描述 OpenAI 配置。
type OpenAIConfig struct {
	APIKey string
	Model  string
}

// Enabled 表示是否提供了必需的密钥。
func (c ArkConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c ArkConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		Temperature: temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadClassifierConfig() (ClassifierConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("CLASSIFIER_BACKEND", BackendHuggingFace))
	switch backend {
	case BackendHuggingFace, BackendArk, BackendOpenAI, BackendLexicon:
	default:
		return ClassifierConfig{}, fmt.Errorf("invalid CLASSIFIER_BACKEND value %q", backend)
	}

	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("CLASSIFIER_TIMEOUT"); err != nil {
		return ClassifierConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ClassifierConfig{}, fmt.Errorf("invalid CLASSIFIER_TIMEOUT value %d: must not be negative", *override)
		}
		timeoutSeconds = *override
	}

	warmup, err := parseBoolEnv("CLASSIFIER_WARMUP", true)
	if err != nil {
		return ClassifierConfig{}, err
	}

	labels := emotion.DefaultLabelSpace
	if raw := strings.TrimSpace(os.Getenv("CLASSIFIER_LABELS")); raw != "" {
		labels = emotion.ParseLabels(raw)
		if len(labels) == 0 {
			return ClassifierConfig{}, fmt.Errorf("invalid CLASSIFIER_LABELS value %q", raw)
		}
	}

	topK := 7
	if override, err := parseOptionalIntEnv("HF_TOP_K"); err != nil {
		return ClassifierConfig{}, err
	} else if override != nil {
		topK = *override
	}

	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return ClassifierConfig{}, err
	}

	return ClassifierConfig{
		Backend: backend,
		Model:   getEnvOrDefault("CLASSIFIER_MODEL", DefaultModel),
		Labels:  labels,
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Warmup:  warmup,
		HF: HuggingFaceConfig{
			APIToken: strings.TrimSpace(os.Getenv("HF_API_TOKEN")),
			BaseURL:  strings.TrimRight(getEnvOrDefault("HF_BASE_URL", "https://api-inference.huggingface.co/models"), "/"),
			TopK:     topK,
		},
		Ark: ArkConfig{
			APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
			AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
			SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
			Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
			BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
			Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
			Temperature: temperature,
		},
		OpenAI: OpenAIConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:  getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		},
	}, nil
}

// ConversationConfig 描述对话控制器、情绪日志与回复表配置。
type ConversationConfig struct {
	MoodLogPath       string
	ResponsesFile     string
	TranscriptEnabled bool
	MaxInputChars     int
}

func loadConversationConfig() (ConversationConfig, error) {
	transcript, err := parseBoolEnv("TRANSCRIPT_ENABLED", true)
	if err != nil {
		return ConversationConfig{}, err
	}

	maxChars := 0
	if override, err := parseOptionalIntEnv("MAX_INPUT_CHARS"); err != nil {
		return ConversationConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return ConversationConfig{}, fmt.Errorf("invalid MAX_INPUT_CHARS value %d: must not be negative", *override)
		}
		maxChars = *override
	}

	return ConversationConfig{
		MoodLogPath:       getEnvOrDefault("MOOD_LOG_PATH", "mood_log.txt"),
		ResponsesFile:     strings.TrimSpace(os.Getenv("RESPONSES_FILE")),
		TranscriptEnabled: transcript,
		MaxInputChars:     maxChars,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
