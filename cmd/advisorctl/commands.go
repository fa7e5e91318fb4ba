// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/AleutianAI/AleutianAdvisor/services/advisor/datatypes"
	"github.com/spf13/cobra"
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

func getAdvisorBaseURL() string {
	if url := os.Getenv("ADVISOR_URL"); url != "" {
		return strings.TrimSuffix(url, "/")
	}
	return "http://localhost:12310"
}

var calcCmd = &cobra.Command{
	Use:   "calc <ticker>",
	Short: "Compute risk, volatility, and annualized return for a ticker",
	Args:  cobra.ExactArgs(1),
	Run:   runCalc,
}

var askCmd = &cobra.Command{
	Use:   "ask <question...>",
	Short: "Ask the advisor a question",
	Args:  cobra.MinimumNArgs(1),
	Run:   runAsk,
}

func init() {
	calcCmd.Flags().String("start", "", "Start date (YYYY-MM-DD), defaults to two years before end")
	calcCmd.Flags().String("end", "", "End date (YYYY-MM-DD), defaults to today")
	calcCmd.Flags().Bool("store-raw", false, "Also persist the raw candle rows")
	calcCmd.Flags().Bool("store-features", false, "Also persist the computed features")

	askCmd.Flags().String("session", "", "Session id to continue an existing conversation")
	askCmd.Flags().String("user", "", "User id")
	askCmd.Flags().String("ticker", "", "Asset ticker the question is about")

	rootCmd.AddCommand(calcCmd)
	rootCmd.AddCommand(askCmd)
}

func runCalc(cmd *cobra.Command, args []string) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	storeRaw, _ := cmd.Flags().GetBool("store-raw")
	storeFeatures, _ := cmd.Flags().GetBool("store-features")

	req := datatypes.CalculationRequest{
		Ticker:        args[0],
		StartDate:     start,
		EndDate:       end,
		StoreRaw:      storeRaw,
		StoreFeatures: storeFeatures,
	}
	postBody, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	advisorURL := fmt.Sprintf("%s/perform_calculations", getAdvisorBaseURL())
	resp, err := httpClient.Post(advisorURL, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		log.Fatalf("Failed to connect to advisor: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Advisor returned an error (Status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result datatypes.CalculationResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		log.Fatalf("Failed to parse response from advisor: %v", err)
	}

	fmt.Printf("Ticker:            %s\n", result.Ticker)
	fmt.Printf("Window:            %s to %s\n", result.StartDate, result.EndDate)
	fmt.Printf("Risk:              %.6f\n", result.Calculations.Risk)
	fmt.Printf("Volatility:        %.6f\n", result.Calculations.Volatility)
	fmt.Printf("Annualized Return: %.6f\n", result.Calculations.AnnualizedReturn)
	for _, warning := range result.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}
}

func runAsk(cmd *cobra.Command, args []string) {
	session, _ := cmd.Flags().GetString("session")
	user, _ := cmd.Flags().GetString("user")
	ticker, _ := cmd.Flags().GetString("ticker")

	req := datatypes.QueryRequest{
		Query:       strings.Join(args, " "),
		UserId:      user,
		SessionId:   session,
		AssetTicker: ticker,
	}
	postBody, err := json.Marshal(req)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}

	advisorURL := fmt.Sprintf("%s/v1/query", getAdvisorBaseURL())
	resp, err := httpClient.Post(advisorURL, "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		log.Fatalf("Failed to connect to advisor: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Advisor returned an error (Status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result datatypes.QueryResponse
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		log.Fatalf("Failed to parse response from advisor: %v", err)
	}

	fmt.Println(result.Answer)
	fmt.Printf("\n(session: %s)\n", result.SessionId)
}
