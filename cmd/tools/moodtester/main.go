package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/mindease/backend/internal/analysis/emotion"
	"github.com/zhouzirui/mindease/backend/internal/config"
	"github.com/zhouzirui/mindease/backend/internal/service/chat"
	"github.com/zhouzirui/mindease/backend/internal/service/classifier"
	"github.com/zhouzirui/mindease/backend/internal/service/conversation"
	"github.com/zhouzirui/mindease/backend/internal/service/moodlog"
	"github.com/zhouzirui/mindease/backend/internal/service/response"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] 无法加载 .env，改用系统环境变量: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}

	mode := flag.String("mode", "", "测试模式: classify 或 chat")
	text := flag.String("text", "", "classify 模式的输入文本，留空则读取标准输入")
	backend := flag.String("backend", "", "覆盖 CLASSIFIER_BACKEND")
	logPath := flag.String("log", "", "chat 模式的情绪日志路径，默认使用配置中的 MOOD_LOG_PATH")
	timeout := flag.Duration("timeout", 45*time.Second, "单次分类超时时间")

	flag.Parse()

	if *mode != "classify" && *mode != "chat" {
		flag.Usage()
		log.Fatal("请通过 -mode=classify 或 -mode=chat 指定测试模式")
	}

	if *backend != "" {
		cfg.Classifier.Backend = strings.ToLower(*backend)
	}

	clf := classifier.NewLazy(classifier.NewFactory(cfg.Classifier))
	if _, err := clf.Get(context.Background()); err != nil {
		log.Fatalf("分类器初始化失败 (backend=%s): %v", cfg.Classifier.Backend, err)
	}

	switch *mode {
	case "classify":
		input := *text
		if input == "" {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				log.Fatalf("读取标准输入失败: %v", err)
			}
			input = string(raw)
		}
		runClassify(clf, input, *timeout)
	case "chat":
		path := cfg.Conversation.MoodLogPath
		if *logPath != "" {
			path = *logPath
		}
		runChat(cfg, clf, path, *timeout)
	}
}

func runClassify(clf classifier.Classifier, text string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	scores, err := clf.Classify(ctx, text)
	if err != nil {
		log.Fatalf("分类失败: %v", err)
	}
	label, err := emotion.Select(scores)
	if err != nil {
		log.Fatalf("分类结果无效: %v", err)
	}

	fmt.Printf("emotion: %s (%s)\n", label, time.Since(start).Round(time.Millisecond))
	for _, s := range scores.Ranked() {
		fmt.Printf("  %-10s %.4f\n", s.Label, s.Score)
	}
}

func runChat(cfg *config.Config, clf classifier.Classifier, path string, timeout time.Duration) {
	table, err := response.LoadFile(cfg.Conversation.ResponsesFile)
	if err != nil {
		log.Fatalf("回复表加载失败: %v", err)
	}

	sessions := chat.NewService()
	ctrl := conversation.NewController(clf, table, moodlog.New(path), sessions, conversation.Options{
		TranscriptEnabled: cfg.Conversation.TranscriptEnabled,
		MaxInputChars:     cfg.Conversation.MaxInputChars,
		ClassifyTimeout:   timeout,
	})

	ctx := context.Background()
	session, err := sessions.CreateSession(ctx, "")
	if err != nil {
		log.Fatalf("创建会话失败: %v", err)
	}

	fmt.Println(cfg.Page.Heading)
	fmt.Println(cfg.Page.Disclaimer)
	fmt.Println(cfg.Page.ChatCaption)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		turn, err := ctrl.HandleTurn(ctx, session.ID, scanner.Text())
		if err != nil {
			fmt.Printf("! %v\n", err)
			continue
		}
		if turn.Ignored() {
			continue
		}

		fmt.Println(turn.Reply)
		if turn.State == conversation.StateError {
			log.Printf("[WARN] 本轮分类失败: %v", turn.Err)
			continue
		}
		fmt.Printf("(detected: %s, logged: %t)\n", turn.Emotion, turn.Logged)
		if turn.FollowUp != "" {
			fmt.Println(turn.FollowUp)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("读取输入失败: %v", err)
	}
}
