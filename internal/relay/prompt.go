package relay

// Prompt is the fixed instruction sent with every artifact.
const Prompt = "Identify the region in xray: skull, spine, chest, abdomen, pelvis, upper and lower limb. Identify the projection: frontal or lateral, standing or laying back. The pacient is always a child, so the xray might not be perfect in exposure and projection. Check if the patient rotated. Assess carefully if there is anything abnormal pictured in the xray. Do not assume, stick to the facts. The answer should be YES or NO. If in doubt, say so. Then provide a one line description of the findings like a radiologist. Check for fractures, foreign metallic bodies, lung consolidation, lung hyperlucency, lung infitrates, lung nodules, air bronchogram, tracheal narrowing, mediastinal shift, pleural effusion, pneumothorax, cardiac silhouette, heart size reported to chest size, size of thimus, large abdominal hydroaeric levels, distended bowel loops, pneumoperitoneum, no gas in lower right abdomen suggestive to intussusception, catheters, spine curvatures, vertebral fractures, vertebral alignment, subcutaneous emphysema, skull fractures, maxilar and frontal sinus transparency."
