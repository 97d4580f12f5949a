// Package costs prices completed calls from their token usage.
//
// Prices come from the model table of each provider:
//
//	providers:
//	  - name: openai
//	    models:
//	      - name: gpt-4
//	        cost_per_1k_input: 0.03
//	        cost_per_1k_output: 0.06
//
// The same numbers drive the cost_priority_round_robin strategy, so the cost
// reported for a call is the cost the router optimised for.
//
//	calc := costs.NewCalculator(cfg.Providers)
//	if est, ok := calc.Cost("openai", resp.Model, resp.Usage); ok {
//		fmt.Printf("$%.4f\n", est.TotalCost)
//	}
package costs
