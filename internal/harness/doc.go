// Package harness runs form scenarios: a form plus a list of submissions,
// each with the decision it is expected to produce.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	form_file: ../forms/eligibility.cue   # or an inline form: {...}
//	form_id: eligibility                  # picks one form from a multi-form file
//	now: "2024-03-15T09:00:00+08:00"      # optional pinned clock for date rules
//	submissions:
//	  - name: adult
//	    responses:
//	      - { _id: age, fieldType: number, answer: "30" }
//	    expect:
//	      accepted: true
//	      visible: [age]
//	      hidden: [guardian]
//	  - name: child
//	    responses: [...]
//	    expect:
//	      blocked: too-young
//	      error_code: E203
//
// Every expect key is optional. visible and invalid_fields must match
// exactly, in form order; hidden only requires the listed fields to be
// absent from the visible set.
//
// # Deterministic Testing
//
// Each scenario runs against a fresh in-memory journal with sequential
// entry ids and a fixed clock. Every decision is journaled and the journal
// is replayed at the end of the run; a replay mismatch fails the scenario.
// Snapshot renders the decisions as canonical JSON for golden comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/eligibility.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
