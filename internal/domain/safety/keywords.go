package safety

import "strings"

// Keyword tables backing the hazard checks. These are data, not control flow:
// extending a category or swapping the whole set for a terminology service
// must not touch the checks themselves. Matching is case-insensitive
// substring against the medication's generic name.

// keywordRule pairs a generic-name fragment with the clinical note attached
// to any alert it raises. Rules are checked in listed order and the first
// match wins, so combination products resolve to the same rule on every call.
type keywordRule struct {
	Keyword string
	Note    string
}

// matchKeyword returns the first rule whose keyword occurs in medName, or nil.
func matchKeyword(rules []keywordRule, medName string) *keywordRule {
	for i := range rules {
		if strings.Contains(medName, rules[i].Keyword) {
			return &rules[i]
		}
	}
	return nil
}

// crossSensitivityRule links an allergen family to medications known to
// cross-react with it.
type crossSensitivityRule struct {
	AllergenKeyword string
	RelatedKeywords []string
	Note            string
}

var crossSensitivityRules = []crossSensitivityRule{
	{
		AllergenKeyword: "penicillin",
		RelatedKeywords: []string{"amoxicillin", "ampicillin", "cephalosporin", "cephalexin", "cefuroxime", "ceftriaxone"},
		Note:            "Beta-lactam cross-sensitivity with penicillin-class allergy",
	},
	{
		AllergenKeyword: "sulfa",
		RelatedKeywords: []string{"sulfamethoxazole", "trimethoprim"},
		Note:            "Sulfonamide cross-sensitivity",
	},
	{
		AllergenKeyword: "aspirin",
		RelatedKeywords: []string{"ibuprofen", "naproxen", "diclofenac", "ketorolac"},
		Note:            "NSAID cross-sensitivity with aspirin allergy",
	},
}

// conditionContraindication blocks drug keywords for patients carrying a
// matching active condition.
type conditionContraindication struct {
	ConditionKeyword string
	DrugKeywords     []string
	Note             string
}

var conditionContraindications = []conditionContraindication{
	{
		ConditionKeyword: "peptic ulcer",
		DrugKeywords:     []string{"ibuprofen", "naproxen", "diclofenac", "ketorolac", "aspirin"},
		Note:             "NSAIDs and aspirin can worsen peptic ulcer disease",
	},
	{
		ConditionKeyword: "heart failure",
		DrugKeywords:     []string{"ibuprofen", "naproxen", "diclofenac", "ketorolac"},
		Note:             "NSAIDs cause fluid retention and worsen heart failure",
	},
	{
		ConditionKeyword: "asthma",
		DrugKeywords:     []string{"aspirin", "propranolol", "timolol", "atenolol"},
		Note:             "Aspirin and beta-blockers can provoke bronchospasm in asthma",
	},
	{
		ConditionKeyword: "renal failure",
		DrugKeywords:     []string{"metformin", "ibuprofen", "naproxen", "diclofenac"},
		Note:             "Metformin and NSAIDs are unsafe in renal failure",
	},
}

// renalRiskRules list renally-excreted drugs needing adjustment or avoidance
// at reduced eGFR.
var renalRiskRules = []keywordRule{
	{"metformin", "Risk of lactic acidosis with impaired renal clearance"},
	{"gabapentin", "Accumulates with reduced renal clearance"},
	{"enoxaparin", "Bleeding risk from accumulation in renal impairment"},
	{"digoxin", "Narrow therapeutic index; renally cleared"},
	{"vancomycin", "Nephrotoxic and renally cleared"},
	{"gentamicin", "Nephrotoxic aminoglycoside"},
}

// hepaticRiskRules list hepatically-metabolized drugs needing caution in
// moderate or severe hepatic impairment.
var hepaticRiskRules = []keywordRule{
	{"warfarin", "Hepatic metabolism; bleeding risk in liver disease"},
	{"phenytoin", "Hepatic metabolism with saturable kinetics"},
	{"carbamazepine", "Hepatically metabolized; hepatotoxic"},
	{"valproate", "Hepatotoxic; contraindicated in severe liver disease"},
	{"methotrexate", "Hepatotoxic with cumulative dosing"},
}

// pregnancyContraindicatedRules are teratogens that must never be given in
// pregnancy.
var pregnancyContraindicatedRules = []keywordRule{
	{"warfarin", "Warfarin embryopathy"},
	{"methotrexate", "Abortifacient and teratogenic"},
	{"isotretinoin", "Severe teratogen"},
	{"finasteride", "Teratogenic effects on male fetus"},
	{"thalidomide", "Severe teratogen"},
}

// pregnancyCautionRules warrant caution but are not absolute blocks.
var pregnancyCautionRules = []keywordRule{
	{"lisinopril", "ACE inhibitors risk fetal renal injury"},
	{"enalapril", "ACE inhibitors risk fetal renal injury"},
	{"ramipril", "ACE inhibitors risk fetal renal injury"},
	{"losartan", "ARBs risk fetal renal injury"},
	{"valsartan", "ARBs risk fetal renal injury"},
	{"ibuprofen", "NSAIDs risk premature ductus arteriosus closure"},
	{"naproxen", "NSAIDs risk premature ductus arteriosus closure"},
	{"diclofenac", "NSAIDs risk premature ductus arteriosus closure"},
}

// lactationCautionRules pass into breast milk in clinically relevant amounts.
var lactationCautionRules = []keywordRule{
	{"codeine", "Risk of infant opioid toxicity in ultra-rapid metabolizers"},
	{"aspirin", "Risk of Reye's syndrome via breast milk"},
	{"lithium", "Excreted in breast milk; infant toxicity risk"},
}

// pediatricAvoidRules are generally avoided under 18. Aspirin is listed first
// so combination products still resolve to the Reye's syndrome escalation.
var pediatricAvoidRules = []keywordRule{
	{"aspirin", "Risk of Reye's syndrome in children"},
	{"tetracycline", "Permanent tooth discoloration in children"},
	{"doxycycline", "Permanent tooth discoloration in children"},
	{"ciprofloxacin", "Fluoroquinolone arthropathy risk in children"},
	{"levofloxacin", "Fluoroquinolone arthropathy risk in children"},
}

// geriatricCautionRules carry elevated risk at age 65 and over.
var geriatricCautionRules = []keywordRule{
	{"diazepam", "Long-acting benzodiazepine; falls and confusion risk"},
	{"lorazepam", "Benzodiazepine; falls and confusion risk"},
	{"alprazolam", "Benzodiazepine; falls and confusion risk"},
	{"amitriptyline", "Strongly anticholinergic; confusion and falls risk"},
	{"diphenhydramine", "Anticholinergic; confusion risk in older adults"},
	{"tramadol", "Opioid; falls and delirium risk in older adults"},
	{"morphine", "Opioid; falls and respiratory depression risk"},
	{"oxycodone", "Opioid; falls and respiratory depression risk"},
}
