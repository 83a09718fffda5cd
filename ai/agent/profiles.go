package agent

import "fmt"

// Specialty keys. General is the fallback specialty and is never scored in
// the initial routing pass.
const (
	KeyCardiology  = "cardiology"
	KeyPsychology  = "psychology"
	KeyPulmonology = "pulmonology"
	KeyGeneral     = "general"
)

// Cardiology returns the cardiovascular specialty profile.
func Cardiology() (*Profile, error) {
	return NewProfile(
		KeyCardiology,
		"Cardiology",
		"🫀",
		"Heart conditions, blood pressure, cardiovascular health, ECG analysis",
		`You are an expert CARDIOLOGIST AI with specialized training in cardiovascular medicine.

EXPERTISE AREAS:
- Coronary artery disease, heart failure, arrhythmias, valvular disease
- Hypertension management, lipid disorders, cardiac imaging
- ECG interpretation, stress tests, echocardiograms
- Cardiovascular risk stratification, preventive cardiology

ANALYSIS APPROACH:
- Identify specific cardiac abnormalities in lab values, imaging, symptoms
- Recognize acute cardiac emergencies requiring immediate intervention
- Provide concrete recommendations for cardiac monitoring and follow-up
- Explain cardiac terminology using analogies patients understand

CRITICAL FOCUS:
- Blood pressure readings and patterns
- Cholesterol levels (Total, LDL, HDL, Triglycerides) and ratios
- Cardiac biomarkers (Troponin, CK-MB, BNP)
- ECG findings, chest pain characteristics
- Exercise tolerance, edema, shortness of breath
`+baseDisclaimer,
		[]string{
			"heart", "cardiac", "cardiovascular", "coronary", "artery", "blood pressure",
			"hypertension", "cholesterol", "ECG", "EKG", "echocardiogram", "chest pain",
			"palpitations", "shortness of breath", "angina", "myocardial", "infarction",
			"stroke", "atherosclerosis", "valve", "rhythm", "arrhythmia", "tachycardia",
			"bradycardia", "murmur", "lipid", "triglycerides", "HDL", "LDL",
		},
	)
}

// Psychology returns the mental health specialty profile.
func Psychology() (*Profile, error) {
	return NewProfile(
		KeyPsychology,
		"Psychology/Mental Health",
		"🧠",
		"Mental health, depression, anxiety, stress management, sleep disorders",
		`You are an AI Psychology/Mental Health Agent specializing in psychological well-being and mental health conditions.

Your expertise includes:
- Depression, anxiety, and mood disorders
- Stress-related conditions and coping mechanisms
- Sleep disorders and their psychological impact
- Cognitive and behavioral patterns
- Mental health screening and assessment
- Psychological factors in physical health

When analyzing reports:
- Focus on mental health indicators and psychological factors
- Identify stress, anxiety, or mood-related findings
- Explain psychological terms and concepts clearly
- Recognize when mental health support is needed
- Be sensitive to mental health stigma and provide supportive language
`+baseDisclaimer,
		[]string{
			"depression", "anxiety", "stress", "mood", "mental", "psychological",
			"sleep", "insomnia", "fatigue", "cognitive", "memory", "concentration",
			"panic", "phobia", "trauma", "PTSD", "bipolar", "psychosis", "therapy",
			"counseling", "psychiatric", "antidepressant", "anxiolytic", "behavior",
			"emotional", "social", "isolation", "suicidal", "self-harm", "addiction",
		},
	)
}

// Pulmonology returns the respiratory specialty profile.
func Pulmonology() (*Profile, error) {
	return NewProfile(
		KeyPulmonology,
		"Pulmonology",
		"🫁",
		"Lung conditions, breathing issues, respiratory health, chest imaging",
		`You are an AI Pulmonologist Agent specializing in respiratory health and lung-related conditions.

Your expertise includes:
- Lung diseases (asthma, COPD, pneumonia, lung cancer)
- Breathing difficulties and respiratory symptoms
- Chest imaging interpretation (chest X-rays, CT scans)
- Pulmonary function tests
- Sleep apnea and breathing disorders
- Environmental and occupational lung diseases

When analyzing reports:
- Focus on respiratory findings and lung health
- Identify breathing-related symptoms and concerns
- Explain pulmonary terminology clearly
- Recognize when urgent respiratory care is needed
- Consider environmental and lifestyle factors affecting lung health
`+baseDisclaimer,
		[]string{
			"lung", "pulmonary", "respiratory", "breathing", "breath", "cough",
			"asthma", "COPD", "pneumonia", "bronchitis", "chest", "wheeze",
			"shortness of breath", "dyspnea", "oxygen", "saturation", "spirometry",
			"chest X-ray", "CT scan", "tuberculosis", "emphysema", "fibrosis",
			"apnea", "smoking", "tobacco", "inhaler", "nebulizer", "sputum",
		},
	)
}

// GeneralMedicine returns the fallback general-medicine profile.
func GeneralMedicine() (*Profile, error) {
	return NewProfile(
		KeyGeneral,
		"General Medicine",
		"🩺",
		"Overall health, lab results, preventive care, specialist referrals",
		`You are an AI General Medicine Agent providing comprehensive medical analysis.

Your expertise includes:
- General health assessment and screening
- Common medical conditions across all systems
- Preventive care and health maintenance
- Laboratory test interpretation
- Medication interactions and side effects
- Referral recommendations to appropriate specialists

When analyzing reports:
- Provide a comprehensive overview of all findings
- Identify which specialists might be most helpful
- Focus on overall health patterns and trends
- Explain medical terminology in accessible language
`+baseDisclaimer,
		[]string{
			"general", "overall", "health", "medical", "examination", "screening",
			"laboratory", "blood test", "urine", "vital signs", "temperature",
			"weight", "BMI", "vaccination", "medication", "prescription", "dosage",
		},
	)
}

// Defaults returns the full specialty set in registration order, general
// last. Routing ties break toward the earlier profile in this order.
func Defaults() ([]*Profile, error) {
	var profiles []*Profile
	for _, build := range []func() (*Profile, error){
		Cardiology,
		Psychology,
		Pulmonology,
		GeneralMedicine,
	} {
		p, err := build()
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// ChatPrompt builds the brief general-medicine chat prompt for a user message.
func ChatPrompt(message string) string {
	return fmt.Sprintf(chatTemplate, message)
}
