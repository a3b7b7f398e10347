// Package heuristic provides a rule-based ai.Classifier that runs without
// any external AI service. It covers the common phishing signals: financial
// keyword squatting, abused TLDs, government impersonation and private
// address ranges.
package heuristic
