package main

import (
	"log"
	"net/http"
	"os"

	"snowboardAnalyze/core"
	"snowboardAnalyze/storage"
)

func main() {
	if err := os.MkdirAll(core.DataRoot(), 0755); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	// 初始化教练提示向量存储
	if err := storage.InitTipStore(); err != nil {
		log.Fatalf("failed to init tip store: %v", err)
	}
	backend := os.Getenv("STORE")
	if backend == "" {
		backend = "memory"
	}
	log.Printf("Tip store initialized: %s", backend)

	if seeded := storage.SeedDefaultTips(); seeded > 0 {
		log.Printf("Seeded %d default coaching tips", seeded)
	}

	// Routes
	http.HandleFunc("/analyze-video", analyzeVideoHandler)
	http.HandleFunc("/analyze-pose", analyzePoseHandler)
	http.HandleFunc("/signals", signalsHandler)
	http.HandleFunc("/phases", phasesHandler)

	// Coaching tip endpoints
	http.HandleFunc("/store-tips", storeTipsHandler)
	http.HandleFunc("/coach", coachHandler)

	// Monitoring endpoints
	http.HandleFunc("/health", healthCheckHandler)
	http.HandleFunc("/stats", statsHandler)

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, nil))
}
